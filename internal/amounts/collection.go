// Package amounts holds the mutable sequence of amounts that the bins
// summarize. Every amount keeps its index for the lifetime of the run.
package amounts

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrIndexOutOfRange = errors.New("amount index out of range")
	ErrInvalidAmount   = errors.New("amount must be finite and non-negative")
)

type Collection struct {
	values []float64
}

// New copies values into a fresh collection.
func New(values []float64) (*Collection, error) {
	for i, v := range values {
		if err := Validate(v); err != nil {
			return nil, fmt.Errorf("amount %d: %w", i, err)
		}
	}
	c := &Collection{values: make([]float64, len(values))}
	copy(c.values, values)
	return c, nil
}

func (c *Collection) Len() int { return len(c.values) }

func (c *Collection) Value(index int) (float64, error) {
	if index < 0 || index >= len(c.values) {
		return 0, fmt.Errorf("index %d (len %d): %w", index, len(c.values), ErrIndexOutOfRange)
	}
	return c.values[index], nil
}

// Set overwrites the value stored at index.
func (c *Collection) Set(index int, value float64) error {
	if index < 0 || index >= len(c.values) {
		return fmt.Errorf("index %d (len %d): %w", index, len(c.values), ErrIndexOutOfRange)
	}
	if err := Validate(value); err != nil {
		return fmt.Errorf("amount %d: %w", index, err)
	}
	c.values[index] = value
	return nil
}

// Append stores value at a fresh index and returns that index.
func (c *Collection) Append(value float64) (int, error) {
	if err := Validate(value); err != nil {
		return -1, fmt.Errorf("amount %d: %w", len(c.values), err)
	}
	c.values = append(c.values, value)
	return len(c.values) - 1, nil
}

func (c *Collection) Sum() float64 {
	var sum float64
	for _, v := range c.values {
		sum += v
	}
	return sum
}

// Values returns a copy of the current contents.
func (c *Collection) Values() []float64 {
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out
}

// Validate reports whether v can be stored as an amount.
func Validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%v: %w", v, ErrInvalidAmount)
	}
	return nil
}
