package skind

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"go.uber.org/zap"
)

// SimplifyState tracks a Simplifier's progress through its state machine.
type SimplifyState int

const (
	Unsimplified SimplifyState = iota
	Simplifying
	Simplified
)

// A TieBreak decides between candidate joints with exactly equal scores.
type TieBreak int

const (
	// TieBreakLowestJoint prefers the lowest joint index on ties.
	TieBreakLowestJoint TieBreak = iota

	// TieBreakHighestJoint prefers the highest joint index on ties.
	TieBreakHighestJoint
)

// replaces reports whether a tied candidate should replace the current
// best joint. Candidates are always scanned in ascending joint order.
func (t TieBreak) replaces() bool {
	return t == TieBreakHighestJoint
}

// A Simplifier reduces a SkinWeightModel to exactly one influence per
// vertex using either the fast or the exhaustive strategy.
type Simplifier struct {
	Model *SkinWeightModel

	// TieBreak selects between equally scored joints. The zero value
	// prefers the lowest joint index.
	TieBreak TieBreak

	// Concurrency limits the number of goroutines used for candidate
	// evaluation. Zero means GOMAXPROCS.
	Concurrency int

	Log *zap.Logger

	state SimplifyState
}

// State returns the current state of the simplification state machine.
func (s *Simplifier) State() SimplifyState {
	return s.state
}

func (s *Simplifier) begin() error {
	if s.Model == nil {
		return errors.New("simplify: no weight model")
	}
	if s.state == Simplifying {
		return errors.New("simplify: already running")
	}
	s.state = Simplifying
	return nil
}

// SimplifyFast collapses every vertex to its maximum-weight influence.
//
// This is a pure weight-table scan and needs no animation sampling.
// Running it on an already-simplified model is a no-op. Vertices without
// influences are reported in the returned Report and skipped.
func (s *Simplifier) SimplifyFast() (*Report, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	log := logOrNop(s.Log)

	report := &Report{}
	numVerts := s.Model.NumVertices()
	for v := 0; v < numVerts; v++ {
		influences, err := s.Model.Weights(v)
		if err != nil {
			s.state = Unsimplified
			return nil, err
		}
		if len(influences) == 0 {
			report.add(Diagnostic{Vertex: v, Err: &UnweightedVertexError{Vertex: v}})
			continue
		}
		best := influences[0]
		for _, inf := range influences[1:] {
			if inf.Weight > best.Weight ||
				(inf.Weight == best.Weight && s.TieBreak.replaces()) {
				best = inf
			}
		}
		if err := s.Model.SetSingleInfluence(v, best.Joint); err != nil {
			s.state = Unsimplified
			return nil, err
		}
	}

	if !report.Empty() {
		log.Warn("fast simplification skipped vertices",
			zap.Int("skipped", len(report.Diagnostics)))
	}
	s.state = Simplified
	return report, nil
}

// SimplifyExhaustive collapses every vertex to the joint whose rigid motion
// best explains the vertex's observed motion across the sampled frames.
//
// Only joints with nonzero weight in the original table are candidates for
// a vertex. Candidate evaluation runs in parallel across vertices; each
// worker reads immutable snapshot data and writes a disjoint result slot,
// and the weight table is only mutated after the whole scan.
func (s *Simplifier) SimplifyExhaustive(snapshots []*Snapshot) (*Report, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		s.state = Unsimplified
		return nil, ErrNoSampleData
	}
	log := logOrNop(s.Log)

	numVerts := s.Model.NumVertices()
	choices := make([]int, numVerts)
	failures := make([]error, numVerts)
	essentials.ConcurrentMap(s.Concurrency, numVerts, func(v int) {
		influences, err := s.Model.Weights(v)
		if err != nil {
			failures[v] = err
			return
		}
		if len(influences) == 0 {
			failures[v] = &UnweightedVertexError{Vertex: v}
			return
		}
		bestJoint := influences[0].Joint
		bestErr := RigidError(bestJoint, v, snapshots)
		for _, inf := range influences[1:] {
			e := RigidError(inf.Joint, v, snapshots)
			if e < bestErr || (e == bestErr && s.TieBreak.replaces()) {
				bestJoint = inf.Joint
				bestErr = e
			}
		}
		choices[v] = bestJoint
	})

	report := &Report{}
	for v := 0; v < numVerts; v++ {
		if failures[v] != nil {
			report.add(Diagnostic{Vertex: v, Err: failures[v]})
			continue
		}
		if err := s.Model.SetSingleInfluence(v, choices[v]); err != nil {
			s.state = Unsimplified
			return nil, err
		}
	}

	if !report.Empty() {
		log.Warn("exhaustive simplification skipped vertices",
			zap.Int("skipped", len(report.Diagnostics)))
	}
	s.state = Simplified
	return report, nil
}
