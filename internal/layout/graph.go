package layout

import (
	"math"
	"slices"
	"sort"
)

// vertex is a node of the layered graph. Dummy vertices carry long edges
// through intermediate ranks.
//
// breadth is the extent across a rank and depth the extent along the rank
// axis; for TB they are width and height, for LR the other way round.
type vertex struct {
	breadth float64
	depth   float64
	dummy   bool
	rank    int
	order   int
	x, y    float64
}

type graph struct {
	index    map[string]int
	vertices []vertex
	// edges holds the deduplicated input edges as vertex index pairs.
	edges [][2]int
	// in and out are adjacency lists of the layered graph, built after
	// dummy insertion, so every entry connects adjacent ranks.
	in, out [][]int
	layers  [][]int
}

func newGraph(nodes []Node, edges []Edge, dir Direction) *graph {
	g := &graph{index: make(map[string]int, len(nodes))}

	for _, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			continue
		}
		w, h := size(n.Width, DefaultWidth), size(n.Height, DefaultHeight)
		v := vertex{breadth: w, depth: h}
		if dir == LeftToRight {
			v.breadth, v.depth = h, w
		}
		g.index[n.ID] = len(g.vertices)
		g.vertices = append(g.vertices, v)
	}

	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		s, ok := g.index[e.Source]
		if !ok {
			continue
		}
		t, ok := g.index[e.Target]
		if !ok || s == t {
			continue
		}
		key := [2]int{s, t}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.edges = append(g.edges, key)
	}
	return g
}

// breakCycles reverses every edge that closes a cycle in a depth-first walk
// taken in input order, leaving a DAG.
func (g *graph) breakCycles() {
	n := len(g.vertices)
	adj := make([][]int, n)
	for i, e := range g.edges {
		adj[e[0]] = append(adj[e[0]], i)
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]uint8, n)
	reversed := make([]bool, len(g.edges))

	// Iterative DFS; plans can form long chains.
	type frame struct{ v, next int }
	for root := 0; root < n; root++ {
		if state[root] != unvisited {
			continue
		}
		stack := []frame{{v: root}}
		state[root] = onStack
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(adj[top.v]) {
				state[top.v] = done
				stack = stack[:len(stack)-1]
				continue
			}
			ei := adj[top.v][top.next]
			top.next++
			w := g.edges[ei][1]
			switch state[w] {
			case onStack:
				reversed[ei] = true
			case unvisited:
				state[w] = onStack
				stack = append(stack, frame{v: w})
			}
		}
	}

	seen := make(map[[2]int]bool, len(g.edges))
	dag := g.edges[:0:0]
	for i, e := range g.edges {
		if reversed[i] {
			e = [2]int{e[1], e[0]}
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		dag = append(dag, e)
	}
	g.edges = dag
}

// assignRanks gives every vertex the length of the longest path reaching it,
// so sources sit on rank 0 and every edge points to a strictly higher rank.
func (g *graph) assignRanks() {
	n := len(g.vertices)
	adj := make([][]int, n)
	indeg := make([]int, n)
	for _, e := range g.edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		indeg[e[1]]++
	}

	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if r := g.vertices[v].rank + 1; r > g.vertices[w].rank {
				g.vertices[w].rank = r
			}
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
}

// insertDummies splits edges spanning more than one rank into chains through
// zero-size dummy vertices and builds the layered adjacency lists.
func (g *graph) insertDummies() {
	g.in = make([][]int, len(g.vertices))
	g.out = make([][]int, len(g.vertices))

	link := func(a, b int) {
		g.out[a] = append(g.out[a], b)
		g.in[b] = append(g.in[b], a)
	}

	for _, e := range g.edges {
		from, to := e[0], e[1]
		prev := from
		for r := g.vertices[from].rank + 1; r < g.vertices[to].rank; r++ {
			g.vertices = append(g.vertices, vertex{dummy: true, rank: r})
			g.in = append(g.in, nil)
			g.out = append(g.out, nil)
			d := len(g.vertices) - 1
			link(prev, d)
			prev = d
		}
		link(prev, to)
	}
}

// initOrder seeds the in-rank order with a depth-first walk from vertices
// taken by rank, which keeps subtrees together.
func (g *graph) initOrder() {
	maxRank := 0
	for _, v := range g.vertices {
		maxRank = max(maxRank, v.rank)
	}
	g.layers = make([][]int, maxRank+1)

	starts := make([]int, len(g.vertices))
	for i := range starts {
		starts[i] = i
	}
	sort.SliceStable(starts, func(a, b int) bool {
		return g.vertices[starts[a]].rank < g.vertices[starts[b]].rank
	})

	visited := make([]bool, len(g.vertices))
	var stack []int
	for _, s := range starts {
		if visited[s] {
			continue
		}
		stack = append(stack[:0], s)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[v] {
				continue
			}
			visited[v] = true
			r := g.vertices[v].rank
			g.vertices[v].order = len(g.layers[r])
			g.layers[r] = append(g.layers[r], v)
			// Push in reverse so the first child is visited first.
			for i := len(g.out[v]) - 1; i >= 0; i-- {
				if w := g.out[v][i]; !visited[w] {
					stack = append(stack, w)
				}
			}
		}
	}
}

// reduceCrossings runs alternating down and up barycenter sweeps and keeps
// the ordering with the fewest crossings seen.
func (g *graph) reduceCrossings(sweeps int) {
	best := g.cloneLayers()
	bestCrossings := g.crossings()

	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		if i%2 == 0 {
			for r := 1; r < len(g.layers); r++ {
				g.reorder(g.layers[r], g.in)
			}
		} else {
			for r := len(g.layers) - 2; r >= 0; r-- {
				g.reorder(g.layers[r], g.out)
			}
		}
		if c := g.crossings(); c < bestCrossings {
			bestCrossings = c
			best = g.cloneLayers()
		}
	}

	g.layers = best
	for _, layer := range g.layers {
		for i, v := range layer {
			g.vertices[v].order = i
		}
	}
}

func (g *graph) cloneLayers() [][]int {
	out := make([][]int, len(g.layers))
	for i, l := range g.layers {
		out[i] = slices.Clone(l)
	}
	return out
}

// reorder sorts layer by the mean order of each vertex's neighbors in the
// adjacent layer. Vertices without neighbors keep their slot.
func (g *graph) reorder(layer []int, neighbors [][]int) {
	type entry struct {
		v    int
		bary float64
	}
	movable := make([]entry, 0, len(layer))
	fixed := make([]bool, len(layer))
	for i, v := range layer {
		ns := neighbors[v]
		if len(ns) == 0 {
			fixed[i] = true
			continue
		}
		sum := 0.0
		for _, w := range ns {
			sum += float64(g.vertices[w].order)
		}
		movable = append(movable, entry{v: v, bary: sum / float64(len(ns))})
	}
	// Stable: ties keep the current relative order.
	sort.SliceStable(movable, func(a, b int) bool {
		return movable[a].bary < movable[b].bary
	})

	next := 0
	for i := range layer {
		if fixed[i] {
			continue
		}
		layer[i] = movable[next].v
		next++
	}
	for i, v := range layer {
		g.vertices[v].order = i
	}
}

// crossings counts edge crossings between every pair of adjacent layers.
func (g *graph) crossings() int {
	total := 0
	for r := 0; r+1 < len(g.layers); r++ {
		total += g.layerCrossings(g.layers[r], len(g.layers[r+1]))
	}
	return total
}

// layerCrossings counts inversions among the target orders of edges leaving
// upper, taken in source order, using a Fenwick tree.
func (g *graph) layerCrossings(upper []int, lowerSize int) int {
	var targets []int
	for _, v := range upper {
		start := len(targets)
		for _, w := range g.out[v] {
			targets = append(targets, g.vertices[w].order)
		}
		slices.Sort(targets[start:])
	}

	tree := make([]int, lowerSize+1)
	count, inserted := 0, 0
	for _, t := range targets {
		// Number of inserted targets <= t.
		le := 0
		for i := t + 1; i > 0; i -= i & -i {
			le += tree[i]
		}
		count += inserted - le
		for i := t + 1; i <= lowerSize; i += i & -i {
			tree[i]++
		}
		inserted++
	}
	return count
}

// separation is the minimum center-to-center distance between two adjacent
// vertices of a rank.
func separation(a, b vertex, nodeSep, edgeSep float64) float64 {
	gap := func(v vertex) float64 {
		if v.dummy {
			return edgeSep / 2
		}
		return nodeSep / 2
	}
	return a.breadth/2 + gap(a) + gap(b) + b.breadth/2
}

// assignBreadth packs every rank, then alternately pulls vertices towards
// the mean position of their upper and lower neighbors. Each placement keeps
// the separation between neighbors in a rank.
func (g *graph) assignBreadth(nodeSep, edgeSep float64) {
	for _, layer := range g.layers {
		x := 0.0
		for i, v := range layer {
			if i > 0 {
				x += separation(g.vertices[layer[i-1]], g.vertices[v], nodeSep, edgeSep)
			}
			g.vertices[v].x = x
		}
		// Center each rank on zero.
		if n := len(layer); n > 0 {
			mid := (g.vertices[layer[0]].x + g.vertices[layer[n-1]].x) / 2
			for _, v := range layer {
				g.vertices[v].x -= mid
			}
		}
	}

	const passes = 4
	for p := 0; p < passes; p++ {
		for r := 1; r < len(g.layers); r++ {
			g.place(g.layers[r], g.in, nodeSep, edgeSep)
		}
		for r := len(g.layers) - 2; r >= 0; r-- {
			g.place(g.layers[r], g.out, nodeSep, edgeSep)
		}
	}
}

// place moves each vertex of layer as close as possible to the mean x of its
// neighbors. It computes the tightest placement packed from the left and the
// one packed from the right and averages them; both respect separation, so
// their average does too.
func (g *graph) place(layer []int, neighbors [][]int, nodeSep, edgeSep float64) {
	n := len(layer)
	if n == 0 {
		return
	}

	want := make([]float64, n)
	for i, v := range layer {
		ns := neighbors[v]
		if len(ns) == 0 {
			want[i] = g.vertices[v].x
			continue
		}
		sum := 0.0
		for _, w := range ns {
			sum += g.vertices[w].x
		}
		want[i] = sum / float64(len(ns))
	}

	sep := make([]float64, n)
	for i := 1; i < n; i++ {
		sep[i] = separation(g.vertices[layer[i-1]], g.vertices[layer[i]], nodeSep, edgeSep)
	}

	left := make([]float64, n)
	left[0] = want[0]
	for i := 1; i < n; i++ {
		left[i] = math.Max(want[i], left[i-1]+sep[i])
	}
	right := make([]float64, n)
	right[n-1] = want[n-1]
	for i := n - 2; i >= 0; i-- {
		right[i] = math.Min(want[i], right[i+1]-sep[i+1])
	}

	for i, v := range layer {
		g.vertices[v].x = (left[i] + right[i]) / 2
	}
}

// assignDepth stacks the ranks: each rank is as deep as its deepest vertex
// and ranks are rankSep apart. Vertices are centered on their rank.
func (g *graph) assignDepth(rankSep float64) {
	top := 0.0
	for _, layer := range g.layers {
		depth := 0.0
		for _, v := range layer {
			depth = math.Max(depth, g.vertices[v].depth)
		}
		for _, v := range layer {
			g.vertices[v].y = top + depth/2
		}
		top += depth + rankSep
	}
}

// translate shifts the drawing so the smallest top-left corner of a real
// vertex is at the origin.
func (g *graph) translate() {
	minX, minY := math.Inf(1), math.Inf(1)
	for _, v := range g.vertices {
		if v.dummy {
			continue
		}
		minX = math.Min(minX, v.x-v.breadth/2)
		minY = math.Min(minY, v.y-v.depth/2)
	}
	if math.IsInf(minX, 1) {
		return
	}
	for i := range g.vertices {
		g.vertices[i].x -= minX
		g.vertices[i].y -= minY
	}
}
