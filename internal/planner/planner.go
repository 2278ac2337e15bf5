// Package planner classifies scanned content files against the remote
// hash index into unchanged / insert / update.
package planner

import (
	"github.com/claudepro-directory/contentsync/internal/content"
)

// HashIndex maps slug -> last-synced content hash for one category.
type HashIndex map[string]string

// Plan is the three-way partition of one scan. Classification is exact
// string equality on hashes, so there are no ambiguous cases.
type Plan struct {
	Unchanged []*content.File
	Insert    []*content.File
	Update    []*content.File
}

// Build partitions files using the per-category hash index. A category
// missing from the index (for example because its fetch failed and
// degraded to empty) classifies all its files as inserts.
func Build(files []*content.File, index map[content.Category]HashIndex) *Plan {
	plan := &Plan{}
	for _, f := range files {
		remote, ok := index[f.Category][f.Slug]
		switch {
		case !ok:
			plan.Insert = append(plan.Insert, f)
		case remote == f.Hash:
			plan.Unchanged = append(plan.Unchanged, f)
		default:
			plan.Update = append(plan.Update, f)
		}
	}
	return plan
}

// Writes returns the combined insert+update work list.
func (p *Plan) Writes() []*content.File {
	out := make([]*content.File, 0, len(p.Insert)+len(p.Update))
	out = append(out, p.Insert...)
	out = append(out, p.Update...)
	return out
}

// Total returns the number of classified files.
func (p *Plan) Total() int {
	return len(p.Unchanged) + len(p.Insert) + len(p.Update)
}
