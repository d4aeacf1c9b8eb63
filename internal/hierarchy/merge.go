package hierarchy

import "github.com/avhern/weave/internal/registry"

// Merged is the result of folding an ordered fragment list root→leaf.
type Merged struct {
	// Include preserves first-seen order across levels with no duplicates:
	// root-level ordering dominates position, leaf levels can still append
	// new names at the end.
	Include []string
	// Servers holds inline server specs; the deepest level defining a key
	// wins regardless of arrival order within that level.
	Servers map[string]registry.ServerSpec
	// Template is the most specific non-empty template name.
	Template string
}

// Merge folds fragments root-to-leaf. Results carrying a parse error
// contribute nothing — the recovery policy is explicit here rather than
// hidden in exception suppression.
func Merge(results []FragmentResult) *Merged {
	merged := &Merged{
		Servers: map[string]registry.ServerSpec{},
	}

	seen := make(map[string]bool)
	for _, res := range results {
		if res.Err != nil || res.Fragment == nil {
			continue
		}
		frag := res.Fragment

		for _, name := range frag.Include {
			if seen[name] {
				continue
			}
			seen[name] = true
			merged.Include = append(merged.Include, name)
		}

		for name, spec := range frag.Servers {
			merged.Servers[name] = spec
		}

		if frag.Template != "" {
			merged.Template = frag.Template
		}
	}

	return merged
}
