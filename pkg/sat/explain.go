package sat

import (
	"context"
	"slices"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// Explain names the tags whose clauses and constraints are jointly unsatisfiable. Each tag is guarded
// by a selector literal; the failed selectors of an unsatisfiable solve form a first core, which is then
// shrunk by dropping one tag at a time. Untagged clauses are always enforced and the objective is ignored.
// Explain returns nil when the instance is satisfiable or the core cannot be established before the
// context is done; a core found before the deadline may not be minimal.
func Explain(ctx context.Context, sat SAT) ([]string, error) {
	if err := sat.Validate(); err != nil {
		return nil, err
	}

	tags := sat.TagNames()
	encoding := newGiniEncoding(sat)
	selectors := make(map[string]z.Lit, len(tags))
	for _, tag := range tags {
		selectors[tag] = encoding.circuit.Lit()
	}

	bounds := make([]z.Lit, len(sat.Constraints))
	for i, constraint := range sat.Constraints {
		if bound, trivial := encoding.atMost(constraint.Terms, constraint.Bound); !trivial {
			bounds[i] = bound
		}
	}

	g := gini.New()
	encoding.circuit.ToCnf(g)
	for i, clause := range sat.Clauses {
		if selector, ok := selectors[sat.Tag(i)]; ok {
			g.Add(selector.Not())
		}
		for _, literal := range clause {
			g.Add(encoding.lit(literal))
		}
		g.Add(0)
	}
	for i, bound := range bounds {
		if bound == z.LitNull {
			continue
		}
		if selector, ok := selectors[sat.Constraints[i].Tag]; ok {
			g.Add(selector.Not())
		}
		g.Add(bound)
		g.Add(0)
	}

	assume := func(tags []string) {
		for _, tag := range tags {
			g.Assume(selectors[tag])
		}
	}

	assume(tags)
	if giniSearch(ctx, g) != -1 {
		return nil, nil
	}
	core := tagsOf(g.Why(nil), selectors)

	for i := 0; i < len(core); {
		candidate := slices.Delete(slices.Clone(core), i, i+1)
		assume(candidate)
		switch giniSearch(ctx, g) {
		case -1:
			core = tagsOf(g.Why(nil), selectors)
			core = intersect(candidate, core)
		case 1:
			i++
		default:
			return core, nil
		}
	}
	return core, nil
}

// tagsOf maps failed selector literals back to their sorted tags.
func tagsOf(failed []z.Lit, selectors map[string]z.Lit) []string {
	tags := make([]string, 0, len(failed))
	for tag, selector := range selectors {
		if slices.Contains(failed, selector) {
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}

func intersect(tags, subset []string) []string {
	result := make([]string, 0, len(subset))
	for _, tag := range tags {
		if slices.Contains(subset, tag) {
			result = append(result, tag)
		}
	}
	return result
}
