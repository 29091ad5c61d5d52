// Package bins maintains a fixed set of scalar bins under point updates.
//
// Every bin keeps the exact running sum and member count of the amounts
// assigned to it and derives its center from them, so the invariant
// center == sum/count holds after every operation. A bin whose count drops
// to zero becomes empty: its center is undefined and reading it fails with
// ErrEmptyBin.
package bins

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Detached marks an index that currently belongs to no bin.
const Detached = -1

type bin struct {
	sum    decimal.Decimal
	count  int
	center float64
}

func (b *bin) empty() bool { return b.count == 0 }

func (b *bin) recenter() {
	if b.count == 0 {
		b.center = 0
		return
	}
	b.center = b.sum.InexactFloat64() / float64(b.count)
}

// Snapshot is a read-only copy of one bin.
type Snapshot struct {
	ID     int
	Sum    float64
	Count  int
	Center float64
	Empty  bool
}

type State struct {
	bins       []bin
	assignment []int
	finder     Finder
	logger     *zap.Logger
}

// NewState seeds the bins from an initial partition of values. Sums and
// counts are derived from the assignment; centers are only checked for
// shape, since each bin's center is recomputed from its members.
func NewState(values []float64, centers []float64, assignment []int, opts ...Option) (*State, error) {
	k := len(centers)
	if k == 0 {
		return nil, fmt.Errorf("no centers: %w", ErrInvalidPartition)
	}
	if len(assignment) != len(values) {
		return nil, fmt.Errorf("%d assignments for %d amounts: %w", len(assignment), len(values), ErrInvalidPartition)
	}
	for i, c := range centers {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("center %d is %v: %w", i, c, ErrInvalidPartition)
		}
	}

	s := &State{
		bins:       make([]bin, k),
		assignment: make([]int, len(values)),
		finder:     NewLinearScan(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(s)
	}

	for i, id := range assignment {
		if id < 0 || id >= k {
			return nil, fmt.Errorf("amount %d assigned to bin %d of %d: %w", i, id, k, ErrInvalidPartition)
		}
		b := &s.bins[id]
		b.sum = b.sum.Add(decimal.NewFromFloat(values[i]))
		b.count++
		s.assignment[i] = id
	}

	cs := make([]float64, k)
	empty := make([]bool, k)
	for id := range s.bins {
		s.bins[id].recenter()
		cs[id] = s.bins[id].center
		empty[id] = s.bins[id].empty()
		if empty[id] {
			s.logger.Warn("bin is empty after partition", zap.Int("bin", id))
		}
	}
	s.finder.Reset(cs, empty)

	return s, nil
}

// K returns the fixed number of bins.
func (s *State) K() int { return len(s.bins) }

// Len returns the number of amount indices known to the state, attached or not.
func (s *State) Len() int { return len(s.assignment) }

// Strategy returns the name of the nearest-bin strategy in use.
func (s *State) Strategy() string { return s.finder.Name() }

func (s *State) Assignment(index int) (int, error) {
	if index < 0 || index >= len(s.assignment) {
		return Detached, fmt.Errorf("index %d (len %d): %w", index, len(s.assignment), ErrIndexOutOfRange)
	}
	return s.assignment[index], nil
}

func (s *State) Center(id int) (float64, error) {
	b, err := s.bin(id)
	if err != nil {
		return 0, err
	}
	if b.empty() {
		return 0, fmt.Errorf("center of bin %d: %w", id, ErrEmptyBin)
	}
	return b.center, nil
}

func (s *State) Count(id int) (int, error) {
	b, err := s.bin(id)
	if err != nil {
		return 0, err
	}
	return b.count, nil
}

func (s *State) Sum(id int) (float64, error) {
	b, err := s.bin(id)
	if err != nil {
		return 0, err
	}
	return b.sum.InexactFloat64(), nil
}

// Live returns the number of bins with at least one member.
func (s *State) Live() int {
	n := 0
	for i := range s.bins {
		if !s.bins[i].empty() {
			n++
		}
	}
	return n
}

// Attached returns the total member count over all bins.
func (s *State) Attached() int {
	n := 0
	for i := range s.bins {
		n += s.bins[i].count
	}
	return n
}

func (s *State) Snapshot() []Snapshot {
	out := make([]Snapshot, len(s.bins))
	for i := range s.bins {
		b := &s.bins[i]
		out[i] = Snapshot{
			ID:    i,
			Sum:   b.sum.InexactFloat64(),
			Count: b.count,
			Empty: b.empty(),
		}
		if !b.empty() {
			out[i].Center = b.center
		}
	}
	return out
}

// Digest hashes the exact bin aggregates and the full assignment.
func (s *State) Digest() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for i := range s.bins {
		b := &s.bins[i]
		binary.LittleEndian.PutUint64(buf[:], uint64(b.count))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(b.sum.String())
	}
	for _, id := range s.assignment {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(id)))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func (s *State) bin(id int) (*bin, error) {
	if id < 0 || id >= len(s.bins) {
		return nil, fmt.Errorf("bin %d of %d: %w", id, len(s.bins), ErrIndexOutOfRange)
	}
	return &s.bins[id], nil
}

// detach takes index out of its bin. value must be the amount currently
// stored at index.
func (s *State) detach(index int, value float64) (int, error) {
	id, err := s.Assignment(index)
	if err != nil {
		return Detached, err
	}
	if id == Detached {
		return Detached, fmt.Errorf("index %d: %w", index, ErrNotAssigned)
	}

	b := &s.bins[id]
	b.sum = b.sum.Sub(decimal.NewFromFloat(value))
	b.count--
	b.recenter()
	s.assignment[index] = Detached
	s.finder.Update(id, b.center, b.empty())

	if b.empty() {
		s.logger.Warn("bin became empty", zap.Int("bin", id), zap.Int("index", index))
	}
	return id, nil
}

// attach puts index into the bin nearest to value. An index equal to Len
// extends the state by one slot.
func (s *State) attach(index int, value float64) (int, error) {
	grown := false
	switch {
	case index == len(s.assignment):
		s.assignment = append(s.assignment, Detached)
		grown = true
	case index < 0 || index > len(s.assignment):
		return Detached, fmt.Errorf("index %d (len %d): %w", index, len(s.assignment), ErrIndexOutOfRange)
	case s.assignment[index] != Detached:
		return Detached, fmt.Errorf("index %d in bin %d: %w", index, s.assignment[index], ErrAlreadyAssigned)
	}

	id, ok := s.finder.Nearest(value)
	if !ok {
		if grown {
			s.assignment = s.assignment[:index]
		}
		return Detached, fmt.Errorf("insert %v at index %d: all %d bins: %w", value, index, len(s.bins), ErrEmptyBin)
	}

	b := &s.bins[id]
	b.sum = b.sum.Add(decimal.NewFromFloat(value))
	b.count++
	b.recenter()
	s.assignment[index] = id
	s.finder.Update(id, b.center, false)
	return id, nil
}
