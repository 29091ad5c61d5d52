package bins

import (
	"fmt"

	"github.com/onai/SMTexperiments/internal/amounts"
)

// Maintainer keeps an amount collection and its bin state in lockstep.
// Every change to an amount goes through Remove followed by Insert.
type Maintainer struct {
	amounts *amounts.Collection
	state   *State
}

func NewMaintainer(a *amounts.Collection, s *State) (*Maintainer, error) {
	if a.Len() != s.Len() {
		return nil, fmt.Errorf("%d amounts but %d assignments: %w", a.Len(), s.Len(), ErrInvalidPartition)
	}
	return &Maintainer{amounts: a, state: s}, nil
}

func (m *Maintainer) Amounts() *amounts.Collection { return m.amounts }

func (m *Maintainer) State() *State { return m.state }

// Remove detaches index from its bin and returns that bin. The amount keeps
// its value and its index.
func (m *Maintainer) Remove(index int) (int, error) {
	v, err := m.amounts.Value(index)
	if err != nil {
		return Detached, fmt.Errorf("remove index %d: %w", index, ErrIndexOutOfRange)
	}
	id, err := m.state.detach(index, v)
	if err != nil {
		return Detached, fmt.Errorf("remove: %w", err)
	}
	return id, nil
}

// Insert attaches a detached index to the bin nearest its current value.
func (m *Maintainer) Insert(index int) (int, error) {
	v, err := m.amounts.Value(index)
	if err != nil {
		return Detached, fmt.Errorf("insert index %d: %w", index, ErrIndexOutOfRange)
	}
	id, err := m.state.attach(index, v)
	if err != nil {
		return Detached, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// MutateAndRebin moves index to value and re-bins it. It returns the bin the
// amount left and the bin it joined.
func (m *Maintainer) MutateAndRebin(index int, value float64) (from, to int, err error) {
	if err := amounts.Validate(value); err != nil {
		return Detached, Detached, fmt.Errorf("mutate %d: %w", index, err)
	}
	if from, err = m.Remove(index); err != nil {
		return Detached, Detached, err
	}
	if err = m.amounts.Set(index, value); err != nil {
		return from, Detached, err
	}
	if to, err = m.Insert(index); err != nil {
		return from, Detached, err
	}
	return from, to, nil
}

// Append stores value at a fresh index and inserts it. Nothing is stored
// when no bin can take the value.
func (m *Maintainer) Append(value float64) (index, id int, err error) {
	if err := amounts.Validate(value); err != nil {
		return -1, Detached, fmt.Errorf("append: %w", err)
	}
	if _, ok := m.state.finder.Nearest(value); !ok {
		return -1, Detached, fmt.Errorf("append %v: all %d bins: %w", value, m.state.K(), ErrEmptyBin)
	}
	if index, err = m.amounts.Append(value); err != nil {
		return -1, Detached, fmt.Errorf("append: %w", err)
	}
	if id, err = m.Insert(index); err != nil {
		return index, Detached, err
	}
	return index, id, nil
}
