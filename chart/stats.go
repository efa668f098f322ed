package chart

import "fmt"

// Stats counts what one parse did. Each Chart keeps its own.
type Stats struct {
	Added     int
	Merged    int
	Pruned    int
	PrePruned int
	// Rejected counts candidates vetoed by the target-state constraint.
	Rejected      int
	DotItemsAdded int
	NodesComputed int
	Pops          int
	UnaryAdded    int
	SpansSkipped  int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Added += o.Added
	s.Merged += o.Merged
	s.Pruned += o.Pruned
	s.PrePruned += o.PrePruned
	s.Rejected += o.Rejected
	s.DotItemsAdded += o.DotItemsAdded
	s.NodesComputed += o.NodesComputed
	s.Pops += o.Pops
	s.UnaryAdded += o.UnaryAdded
	s.SpansSkipped += o.SpansSkipped
}

func (s Stats) String() string {
	return fmt.Sprintf("ADDED: %d; MERGED: %d; PRUNED: %d; PRE-PRUNED: %d; REJECTED: %d; DOT-ITEMS ADDED: %d; COMPUTED: %d; POPS: %d",
		s.Added, s.Merged, s.Pruned, s.PrePruned, s.Rejected, s.DotItemsAdded, s.NodesComputed, s.Pops)
}
