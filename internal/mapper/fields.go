package mapper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/claudepro-directory/contentsync/internal/content"
)

// FieldMapping pairs a camelCase source key in the content JSON with the
// snake_case key it takes inside the metadata blob.
type FieldMapping struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// metadataFields is the per-category extraction table for the unified
// content table. Jobs and changelog are absent on purpose: they map to
// dedicated tables with fixed columns.
var metadataFields = map[content.Category][]FieldMapping{
	content.Agents: {
		{Source: "features", Dest: "features"},
		{Source: "useCases", Dest: "use_cases"},
		{Source: "installation", Dest: "installation"},
		{Source: "configuration", Dest: "configuration"},
	},
	content.MCP: {
		{Source: "package", Dest: "package_name"},
		{Source: "installation", Dest: "installation"},
		{Source: "configuration", Dest: "configuration"},
		{Source: "security", Dest: "security_notes"},
		{Source: "features", Dest: "features"},
		{Source: "requiresAuth", Dest: "requires_auth"},
	},
	content.Rules: {
		{Source: "configuration", Dest: "configuration"},
		{Source: "expertiseAreas", Dest: "expertise_areas"},
	},
	content.Commands: {
		{Source: "syntax", Dest: "syntax"},
		{Source: "aliases", Dest: "aliases"},
		{Source: "examples", Dest: "examples"},
	},
	content.Hooks: {
		{Source: "hookType", Dest: "hook_type"},
		{Source: "eventTypes", Dest: "event_types"},
		{Source: "scriptContent", Dest: "script_content"},
	},
	content.Statuslines: {
		{Source: "scriptType", Dest: "script_type"},
		{Source: "preview", Dest: "preview"},
		{Source: "installCommand", Dest: "install_command"},
	},
	content.Skills: {
		{Source: "dependencies", Dest: "dependencies"},
		{Source: "examples", Dest: "examples"},
		{Source: "license", Dest: "license"},
	},
	content.Collections: {
		{Source: "items", Dest: "item_slugs"},
		{Source: "difficulty", Dest: "difficulty"},
		{Source: "estimatedTime", Dest: "estimated_time"},
	},
	content.Guides: {
		{Source: "readingTime", Dest: "reading_time"},
		{Source: "relatedGuides", Dest: "related_guides"},
		{Source: "keywords", Dest: "keywords"},
	},
}

// LoadFieldOverrides replaces the extraction table for the categories named
// in a YAML file:
//
//	agents:
//	  - source: features
//	    dest: features
//
// Categories not named keep their built-in tables.
func LoadFieldOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read field table %s: %w", path, err)
	}

	var overrides map[string][]FieldMapping
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse field table %s: %w", path, err)
	}

	for name, fields := range overrides {
		if !content.IsKnown(name) {
			return fmt.Errorf("%w: %s in field table %s", ErrUnknownCategory, name, path)
		}
		metadataFields[content.Category(name)] = fields
	}
	return nil
}
