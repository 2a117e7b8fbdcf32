package bot

import (
	"errors"
	"fmt"
)

// Sentinel errors the service surface maps to transport-level outcomes.
var (
	// ErrValidation rejects empty or oversized messages before routing.
	ErrValidation = errors.New("invalid message")
	// ErrSessionNotFound covers unknown and expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCollaborator wraps retrieval/generation failures. They surface
	// as an in-band error payload, never a crash.
	ErrCollaborator = errors.New("collaborator failure")
)

func collaboratorErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCollaborator, op, err)
}
