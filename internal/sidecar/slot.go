package sidecar

import (
	"context"
	"fmt"
)

// Slot holds at most one live Handle for the application session.
// Access goes through Store, Take and Peek; each is a short critical
// section and none calls into the OS while holding the lock.
//
// The lock is a one-token semaphore so acquisition can honour a context.
type Slot struct {
	sem    chan struct{}
	handle *Handle
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{sem: make(chan struct{}, 1)}
}

func (s *Slot) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	default:
	}

	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrLockContention, ctx.Err())
	}
}

func (s *Slot) unlock() {
	<-s.sem
}

// Store places h in the empty slot.
func (s *Slot) Store(ctx context.Context, h *Handle) error {
	if h == nil {
		return ErrNilHandle
	}
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if s.handle != nil {
		return ErrSlotOccupied
	}
	s.handle = h
	return nil
}

// Take removes and returns the stored handle. An empty slot yields nil.
// Only one caller can ever receive a given handle.
func (s *Slot) Take(ctx context.Context) (*Handle, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	h := s.handle
	s.handle = nil
	return h, nil
}

// Peek returns the stored handle without removing it.
func (s *Slot) Peek(ctx context.Context) (*Handle, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	return s.handle, nil
}
