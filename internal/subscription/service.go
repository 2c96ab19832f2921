package subscription

import (
	"fmt"
	"sort"
)

// Status tells the transport layer which reply to send after a mutation.
type Status string

const (
	StatusAdded           Status = "ADDED"
	StatusReactivated     Status = "REACTIVATED"
	StatusAlreadyActive   Status = "ALREADY_ACTIVE"
	StatusDeactivated     Status = "DEACTIVATED"
	StatusAlreadyInactive Status = "ALREADY_INACTIVE"
)

// Service implements the subscription operations over any Store. Every
// mutation is a full load-mutate-save cycle; with a single process and low
// contention, last-writer-wins is acceptable.
type Service struct {
	store Store
}

// NewService returns a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// AddOrActivate registers userID (new users start active) or reactivates an
// inactive one. An already-active user is a no-op.
func (s *Service) AddOrActivate(userID string) (Status, error) {
	users, err := s.store.Load()
	if err != nil {
		return "", fmt.Errorf("load users: %w", err)
	}

	active, known := users[userID]
	switch {
	case !known:
		users[userID] = true
		if err := s.store.Save(users); err != nil {
			return "", fmt.Errorf("save users: %w", err)
		}
		return StatusAdded, nil
	case !active:
		users[userID] = true
		if err := s.store.Save(users); err != nil {
			return "", fmt.Errorf("save users: %w", err)
		}
		return StatusReactivated, nil
	default:
		return StatusAlreadyActive, nil
	}
}

// Deactivate turns alerts off for userID. The entry stays in the store.
func (s *Service) Deactivate(userID string) (Status, error) {
	users, err := s.store.Load()
	if err != nil {
		return "", fmt.Errorf("load users: %w", err)
	}

	if active, known := users[userID]; known && active {
		users[userID] = false
		if err := s.store.Save(users); err != nil {
			return "", fmt.Errorf("save users: %w", err)
		}
		return StatusDeactivated, nil
	}
	return StatusAlreadyInactive, nil
}

// ActiveIDs returns the ids of all active subscribers, sorted for stable
// delivery order.
func (s *Service) ActiveIDs() ([]string, error) {
	users, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	ids := make([]string, 0, len(users))
	for id, active := range users {
		if active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
