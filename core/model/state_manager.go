// Package model provides fitted-state tracking and the estimator interfaces
// shared by the factor model and its kernels.
package model

import (
	"sync"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Estimators hold one by composition instead of embedding a base type.
type StateManager struct {
	mu     sync.RWMutex
	name   string
	fitted bool

	nSamples  int
	nFeatures []int // one entry per view
}

// NewStateManager creates a StateManager for the named estimator.
func NewStateManager(name string) *StateManager {
	return &StateManager{name: name}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as fitted and records the shape it was fitted on.
func (s *StateManager) SetFitted(nSamples int, nFeatures ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nSamples = nSamples
	s.nFeatures = append([]int(nil), nFeatures...)
}

// Reset clears the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nSamples = 0
	s.nFeatures = nil
}

// Dimensions returns the sample count and per-view feature counts seen during fitting.
func (s *StateManager) Dimensions() (nSamples int, nFeatures []int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nSamples, append([]int(nil), s.nFeatures...)
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(s.name, method)
	}
	return nil
}

// RequireFeatures checks that view has the feature count seen during fitting.
func (s *StateManager) RequireFeatures(method string, view, got int) error {
	if err := s.RequireFitted(method); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if view < 0 || view >= len(s.nFeatures) {
		return errors.NewValidationError("view", "out of range", view)
	}
	if s.nFeatures[view] != got {
		return errors.NewDimensionError(method, s.nFeatures[view], got, 1)
	}
	return nil
}
