package chart

import (
	"container/heap"
	"strconv"
	"strings"

	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
)

// cubeState is one point of a dot node's grid: a rule rank followed by one
// rank per antecedent symbol group, all 1-based. States are never mutated.
type cubeState struct {
	work  *applicable
	ranks []int
	rule  *grammar.Rule
	ants  []*hypergraph.Node
	res   result
	seq   int
}

func (s *cubeState) key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.work.dot.id))
	for _, r := range s.ranks {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(r))
	}
	return b.String()
}

// cubeQueue is a max-heap on estimate; earlier pushes win ties.
type cubeQueue []*cubeState

func (q cubeQueue) Len() int { return len(q) }

func (q cubeQueue) Less(a, b int) bool {
	if q[a].res.estimate != q[b].res.estimate {
		return q[a].res.estimate > q[b].res.estimate
	}
	return q[a].seq < q[b].seq
}

func (q cubeQueue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }

func (q *cubeQueue) Push(x any) { *q = append(*q, x.(*cubeState)) }

func (q *cubeQueue) Pop() any {
	old := *q
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return s
}

// cubePruner enumerates rule and antecedent combinations best first. With a
// pop limit the whole span shares one queue; otherwise every dot node gets
// its own, bounded by beamSize pops and the relative threshold.
type cubePruner struct {
	popLimit  int
	beamSize  int
	threshold float64
}

func (p *cubePruner) name() string {
	if p.popLimit > 0 {
		return "cube-pruning"
	}
	return "beam-and-threshold"
}

func (p *cubePruner) complete(c *Chart, cell *Cell, work []applicable) {
	var grids []*applicable
	for k := range work {
		if work[k].arity == 0 {
			c.addAxioms(cell, work[k])
			continue
		}
		grids = append(grids, &work[k])
	}
	if p.popLimit > 0 {
		p.completeSpan(c, cell, grids)
		return
	}
	for _, w := range grids {
		p.completeDot(c, cell, w)
	}
}

// completeSpan shares one queue and one pop budget across every grid.
func (p *cubePruner) completeSpan(c *Chart, cell *Cell, grids []*applicable) {
	q := &cubeQueue{}
	visited := make(map[string]bool)
	for _, w := range grids {
		s := p.seed(c, cell, w)
		visited[s.key()] = true
		heap.Push(q, s)
	}
	for pops := 0; q.Len() > 0 && pops < p.popLimit; pops++ {
		s := heap.Pop(q).(*cubeState)
		c.stats.Pops++
		c.insert(cell, s.res, s.rule, s.ants, s.work.dot.Path)
		for _, nb := range p.neighbors(c, cell, s, visited) {
			heap.Push(q, nb)
		}
	}
	c.stats.Pruned += q.Len()
}

// completeDot explores one grid under the beam and the cell's threshold.
func (p *cubePruner) completeDot(c *Chart, cell *Cell, w *applicable) {
	s := p.seed(c, cell, w)
	if s.res.estimate < cell.cutoff(p.threshold) {
		c.stats.PrePruned++
		return
	}
	q := &cubeQueue{s}
	visited := map[string]bool{s.key(): true}
	for pops := 0; q.Len() > 0 && (p.beamSize <= 0 || pops < p.beamSize); pops++ {
		top := heap.Pop(q).(*cubeState)
		if top.res.estimate < cell.cutoff(p.threshold) {
			c.stats.Pruned++
			break
		}
		c.stats.Pops++
		c.insert(cell, top.res, top.rule, top.ants, w.dot.Path)
		for _, nb := range p.neighbors(c, cell, top, visited) {
			if nb.res.estimate < cell.cutoff(p.threshold) {
				c.stats.PrePruned++
				continue
			}
			heap.Push(q, nb)
		}
	}
	c.stats.Pruned += q.Len()
}

// seed scores the best rule with the best antecedent of every group.
func (p *cubePruner) seed(c *Chart, cell *Cell, w *applicable) *cubeState {
	ranks := make([]int, len(w.dot.Ants)+1)
	ants := make([]*hypergraph.Node, len(w.dot.Ants))
	for k, sn := range w.dot.Ants {
		ranks[k+1] = 1
		ants[k] = sn.Nodes[0]
	}
	ranks[0] = 1
	return p.state(c, cell, w, ranks, w.rules[0], ants)
}

// neighbors advances each rank of s by one, skipping coordinates already
// visited or past the end of their dimension.
func (p *cubePruner) neighbors(c *Chart, cell *Cell, s *cubeState, visited map[string]bool) []*cubeState {
	var out []*cubeState
	for k := range s.ranks {
		next := s.ranks[k] + 1
		size := len(s.work.rules)
		if k > 0 {
			size = len(s.work.dot.Ants[k-1].Nodes)
		}
		if next > size {
			continue
		}
		ranks := append([]int(nil), s.ranks...)
		ranks[k] = next
		probe := &cubeState{work: s.work, ranks: ranks}
		key := probe.key()
		if visited[key] {
			continue
		}
		visited[key] = true
		rule := s.rule
		ants := s.ants
		if k == 0 {
			rule = s.work.rules[next-1]
		} else {
			ants = append([]*hypergraph.Node(nil), s.ants...)
			ants[k-1] = s.work.dot.Ants[k-1].Nodes[next-1]
		}
		out = append(out, p.state(c, cell, s.work, ranks, rule, ants))
	}
	return out
}

func (p *cubePruner) state(c *Chart, cell *Cell, w *applicable, ranks []int, r *grammar.Rule, ants []*hypergraph.Node) *cubeState {
	return &cubeState{
		work:  w,
		ranks: ranks,
		rule:  r,
		ants:  ants,
		res:   c.compute(r, ants, cell.I, cell.J, w.dot.Path),
		seq:   c.nextID(),
	}
}
