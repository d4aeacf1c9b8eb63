package template

// Resolve returns the application chain for a named template: a valid
// topological order where every include precedes its dependents, base
// first, the requested template last. Each template appears exactly once;
// cycles and diamond dependencies are skipped at the revisit, so
// resolution always terminates.
//
// An unknown top-level name is a user-facing error. An unknown nested
// include degrades gracefully — it is skipped and the rest of the chain
// still resolves.
func (r *Resolver) Resolve(name string) ([]Node, error) {
	node, err := r.Locate(name)
	if err != nil {
		return nil, err
	}
	visited := make(map[string]bool)
	return r.resolve(node, visited), nil
}

// resolve threads the visited set explicitly so the cycle-break behavior
// is auditable in isolation. The set is keyed by resolved manifest path:
// two names mapping to the same directory count as one template.
func (r *Resolver) resolve(node Node, visited map[string]bool) []Node {
	key := node.ManifestPath()
	if visited[key] {
		return nil
	}
	visited[key] = true

	var chain []Node
	for _, include := range node.Manifest.Includes {
		child, err := r.Locate(include)
		if err != nil {
			continue
		}
		chain = append(chain, r.resolve(child, visited)...)
	}
	return append(chain, node)
}
