// Package params implements ParamResolver: it orders a Parameter set by
// dependency, detects cycles, and produces the expr.Scope used to
// evaluate every other expression in the system.
//
// Explicit adjacency maps with sort-stabilized iteration rather than a
// generic graph library — this is a small graph problem with a tie-break
// rule (insertion order at equal depth) a generic library would not
// expose directly.
package params

import (
	"regexp"
	"sort"

	"github.com/piwi3910/stackfab/internal/expr"
	"github.com/piwi3910/stackfab/internal/stackerr"
	"github.com/piwi3910/stackfab/internal/stackmodel"
)

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// referencedKeys extracts every identifier mentioned in expression, used
// to build the p -> q dependency edge set without a full parse (any
// identifier that is not a known key is simply absent from the graph and
// will surface as an UnknownIdentifier error when expr.Eval runs).
func referencedKeys(expression string) []string {
	return identRe.FindAllString(expression, -1)
}

// Resolve evaluates every parameter in dependency order, populating
// Value in mm. Parameters that are part of a cycle, or whose expression
// cannot be evaluated, get Value = 0 and a non-nil Err; the batch itself
// never aborts. The returned slice is the same slice passed in, entries
// mutated in place.
func Resolve(parameters []stackmodel.Parameter) []stackmodel.Parameter {
	n := len(parameters)
	keyToIdx := make(map[string]int, n)
	for i, p := range parameters {
		keyToIdx[p.Key] = i
	}

	// adjacency[i] = indices of parameters that i's expression depends on.
	adjacency := make([][]int, n)
	for i, p := range parameters {
		seen := map[int]bool{}
		for _, key := range referencedKeys(p.Expression) {
			if key == "mm" || key == "in" {
				continue
			}
			if j, ok := keyToIdx[key]; ok && !seen[j] {
				adjacency[i] = append(adjacency[i], j)
				seen[j] = true
			}
		}
	}

	sccOf, sccs := tarjanSCC(adjacency)
	cyclic := make([]bool, n)
	for _, scc := range sccs {
		if len(scc) > 1 {
			for _, i := range scc {
				cyclic[i] = true
			}
			continue
		}
		// Self-edge (a := a + 1) is also a cycle even though the SCC has
		// one member.
		i := scc[0]
		for _, j := range adjacency[i] {
			if j == i {
				cyclic[i] = true
			}
		}
	}

	order := topoOrder(adjacency, n)

	scope := expr.Scope{}
	for _, i := range order {
		p := &parameters[i]
		if cyclic[i] {
			members := cycleMembers(sccOf, sccs, i, parameters)
			p.Value = 0
			p.Err = &stackerr.Cycle{Members: members}
			scope[p.Key] = 0
			continue
		}
		v, err := expr.Eval(p.Expression, scope)
		if err != nil {
			p.Value = 0
			p.Err = err
			scope[p.Key] = 0
			continue
		}
		p.Value = v
		p.Err = nil
		scope[p.Key] = v
	}

	return parameters
}

func cycleMembers(sccOf []int, sccs [][]int, i int, parameters []stackmodel.Parameter) []string {
	members := make([]string, 0, 4)
	id := sccOf[i]
	if id >= 0 && id < len(sccs) && len(sccs[id]) > 1 {
		for _, j := range sccs[id] {
			members = append(members, parameters[j].Key)
		}
		sort.Strings(members)
		return members
	}
	return []string{parameters[i].Key}
}

// topoOrder returns a reverse-topological evaluation order (dependencies
// before dependents), breaking ties at equal depth by insertion order.
// Nodes inside a cycle are ordered last among
// their own SCC but otherwise keep insertion order, since their Value is
// forced to 0 regardless.
func topoOrder(adjacency [][]int, n int) []int {
	visited := make([]bool, n)
	var order []int
	var visit func(i int, stack map[int]bool)
	visit = func(i int, stack map[int]bool) {
		if visited[i] || stack[i] {
			return
		}
		stack[i] = true
		for _, j := range adjacency[i] {
			visit(j, stack)
		}
		stack[i] = false
		if !visited[i] {
			visited[i] = true
			order = append(order, i)
		}
	}
	for i := 0; i < n; i++ {
		visit(i, map[int]bool{})
	}
	return order
}

// DependsOn reports whether source transitively depends on target,
// i.e. whether adding an edge target -> source would close a cycle. The
// editor calls this before accepting a new reference.
func DependsOn(parameters []stackmodel.Parameter, source, target string) bool {
	keyToIdx := make(map[string]int, len(parameters))
	for i, p := range parameters {
		keyToIdx[p.Key] = i
	}
	srcIdx, ok := keyToIdx[source]
	if !ok {
		return false
	}
	tgtIdx, ok := keyToIdx[target]
	if !ok {
		return false
	}

	adjacency := make([][]int, len(parameters))
	for i, p := range parameters {
		for _, key := range referencedKeys(p.Expression) {
			if j, ok := keyToIdx[key]; ok && j != i {
				adjacency[i] = append(adjacency[i], j)
			}
		}
	}

	visited := make([]bool, len(parameters))
	var dfs func(i int) bool
	dfs = func(i int) bool {
		if i == tgtIdx {
			return true
		}
		if visited[i] {
			return false
		}
		visited[i] = true
		for _, j := range adjacency[i] {
			if dfs(j) {
				return true
			}
		}
		return false
	}
	return dfs(srcIdx)
}

// tarjanSCC computes strongly connected components of the dependency
// graph so Resolve can flag any SCC larger than one (or with a self edge)
// as a Cycle error for all members.
func tarjanSCC(adjacency [][]int) (sccOf []int, sccs [][]int) {
	n := len(adjacency)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	counter := 0
	sccOf = make([]int, n)
	for i := range sccOf {
		sccOf[i] = -1
	}

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if index[w] == -1 {
				strongConnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var component []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			id := len(sccs)
			for _, w := range component {
				sccOf[w] = id
			}
			sccs = append(sccs, component)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongConnect(v)
		}
	}
	return sccOf, sccs
}
