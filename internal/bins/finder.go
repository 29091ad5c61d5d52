package bins

import (
	"fmt"
	"math"
	"sort"
)

const (
	StrategyLinear = "linear"
	StrategySorted = "sorted"
)

// Finder locates the bin whose center is closest to a value. Empty bins are
// never returned. Among bins at the same distance the lowest id wins.
type Finder interface {
	Name() string
	// Reset rebuilds the finder from scratch.
	Reset(centers []float64, empty []bool)
	// Update records a new center for one bin.
	Update(id int, center float64, empty bool)
	// Nearest returns false when every bin is empty.
	Nearest(value float64) (int, bool)
}

// NewFinder returns the finder registered under name.
func NewFinder(name string) (Finder, error) {
	switch name {
	case StrategyLinear, "":
		return NewLinearScan(), nil
	case StrategySorted:
		return NewSortedIndex(), nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
	}
}

// LinearScan compares the value against every center.
type LinearScan struct {
	centers []float64
	empty   []bool
}

var _ Finder = (*LinearScan)(nil)

func NewLinearScan() *LinearScan { return &LinearScan{} }

func (l *LinearScan) Name() string { return StrategyLinear }

func (l *LinearScan) Reset(centers []float64, empty []bool) {
	l.centers = append(l.centers[:0], centers...)
	l.empty = append(l.empty[:0], empty...)
}

func (l *LinearScan) Update(id int, center float64, empty bool) {
	l.centers[id] = center
	l.empty[id] = empty
}

func (l *LinearScan) Nearest(value float64) (int, bool) {
	best := -1
	minDist := math.Inf(1)
	for i, c := range l.centers {
		if l.empty[i] {
			continue
		}
		if d := math.Abs(c - value); d < minDist {
			minDist = d
			best = i
		}
	}
	return best, best >= 0
}

// SortedIndex keeps the live centers ordered by (center, id) and answers
// Nearest with a binary search. It returns the same bin as LinearScan.
type SortedIndex struct {
	keys []float64
	ids  []int
	pos  []int // bin id -> position in keys, -1 when the bin is empty
}

var _ Finder = (*SortedIndex)(nil)

func NewSortedIndex() *SortedIndex { return &SortedIndex{} }

func (s *SortedIndex) Name() string { return StrategySorted }

func (s *SortedIndex) Reset(centers []float64, empty []bool) {
	s.keys = s.keys[:0]
	s.ids = s.ids[:0]
	s.pos = make([]int, len(centers))
	for id := range centers {
		s.pos[id] = -1
		if !empty[id] {
			s.ids = append(s.ids, id)
		}
	}
	sort.Slice(s.ids, func(i, j int) bool {
		a, b := s.ids[i], s.ids[j]
		if centers[a] != centers[b] {
			return centers[a] < centers[b]
		}
		return a < b
	})
	for p, id := range s.ids {
		s.keys = append(s.keys, centers[id])
		s.pos[id] = p
	}
}

func (s *SortedIndex) Update(id int, center float64, empty bool) {
	p := s.pos[id]
	switch {
	case empty && p < 0:
	case empty:
		s.removeAt(p)
		s.pos[id] = -1
	case p < 0:
		s.insert(id, center)
	default:
		s.keys[p] = center
		s.adjustLeft(s.adjustRight(p))
	}
}

func (s *SortedIndex) Nearest(value float64) (int, bool) {
	n := len(s.keys)
	if n == 0 {
		return -1, false
	}

	i := sort.SearchFloat64s(s.keys, value)
	minDist := math.Inf(1)
	if i < n {
		minDist = math.Abs(s.keys[i] - value)
	}
	if i > 0 {
		minDist = math.Min(minDist, math.Abs(s.keys[i-1]-value))
	}

	// Every center at minDist sits in one run on each side of i.
	best := -1
	for j := i - 1; j >= 0 && math.Abs(s.keys[j]-value) == minDist; j-- {
		if best < 0 || s.ids[j] < best {
			best = s.ids[j]
		}
	}
	for j := i; j < n && math.Abs(s.keys[j]-value) == minDist; j++ {
		if best < 0 || s.ids[j] < best {
			best = s.ids[j]
		}
	}
	return best, true
}

func (s *SortedIndex) less(i, j int) bool {
	if s.keys[i] != s.keys[j] {
		return s.keys[i] < s.keys[j]
	}
	return s.ids[i] < s.ids[j]
}

func (s *SortedIndex) swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.ids[i], s.ids[j] = s.ids[j], s.ids[i]
	s.pos[s.ids[i]] = i
	s.pos[s.ids[j]] = j
}

func (s *SortedIndex) adjustRight(p int) int {
	for ; p+1 < len(s.keys) && s.less(p+1, p); p++ {
		s.swap(p, p+1)
	}
	return p
}

func (s *SortedIndex) adjustLeft(p int) int {
	for ; p > 0 && s.less(p, p-1); p-- {
		s.swap(p, p-1)
	}
	return p
}

func (s *SortedIndex) removeAt(p int) {
	copy(s.keys[p:], s.keys[p+1:])
	copy(s.ids[p:], s.ids[p+1:])
	s.keys = s.keys[:len(s.keys)-1]
	s.ids = s.ids[:len(s.ids)-1]
	for j := p; j < len(s.ids); j++ {
		s.pos[s.ids[j]] = j
	}
}

func (s *SortedIndex) insert(id int, center float64) {
	s.keys = append(s.keys, center)
	s.ids = append(s.ids, id)
	s.pos[id] = len(s.keys) - 1
	s.adjustLeft(len(s.keys) - 1)
}
