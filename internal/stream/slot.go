package stream

import (
	"context"
	"sync"

	"arbpanel/internal/models"
)

// Slot holds at most one live subscription from a source. Switching targets closes
// the previous subscription before the next one is opened.
type Slot struct {
	source Source

	mu      sync.Mutex
	current Subscription
}

func NewSlot(source Source) *Slot {
	return &Slot{source: source}
}

// Switch moves the slot to target. A zero target only closes the current subscription.
// Switching to the target already held keeps the existing subscription unless it has stopped.
func (s *Slot) Switch(ctx context.Context, target models.Identity) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Target() == target && s.current.Latest().Status != StatusClosed {
		return s.current, nil
	}
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	if target.IsZero() {
		return nil, nil
	}

	sub, err := s.source.Subscribe(ctx, target)
	if err != nil {
		return nil, err
	}
	s.current = sub
	return sub, nil
}

func (s *Slot) Current() (Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
}
