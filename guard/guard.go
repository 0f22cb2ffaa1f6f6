// Package guard is the policy layer deciding whether a requested state
// transition is currently permitted. Guards are pure decision functions over
// stored user state; they read, never write. Every rejection carries a
// distinct stable reason so the dispatcher can surface a precise explanation
// instead of a generic failure.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

// Rejection reasons. Stable identifiers; callers match on these, not on the
// message text.
const (
	ReasonNotOnboarded   = "NOT_ONBOARDED"
	ReasonStageTooLow    = "STAGE_TOO_LOW"
	ReasonNotShortlisted = "NOT_SHORTLISTED"
	ReasonNotLocked      = "NOT_LOCKED"
)

// Error is a policy rejection. It is expected control flow, not a fault: the
// dispatcher turns it into a tool outcome the model can react to.
type Error struct {
	Reason  string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// IsRejection reports whether err is a guard rejection, returning it if so.
func IsRejection(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// Store is the narrow read surface guards need.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*core.Profile, error)
	GetShortlistEntry(ctx context.Context, userID, universityID string) (*core.ShortlistEntry, error)
}

// Guard evaluates transition permissions against current stored state.
type Guard struct {
	store Store
}

// New creates a Guard reading from the given store.
func New(s Store) *Guard {
	return &Guard{store: s}
}

// Shortlist permits adding a university to the shortlist. Requires completed
// onboarding and at least the discovery stage.
func (g *Guard) Shortlist(ctx context.Context, userID, universityID string) error {
	profile, err := g.store.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if !profile.OnboardingCompleted {
		return &Error{
			Reason:  ReasonNotOnboarded,
			Message: "complete your onboarding before shortlisting universities",
		}
	}
	if profile.CurrentStage < core.StageDiscovery {
		return &Error{
			Reason:  ReasonStageTooLow,
			Message: "shortlisting unlocks once you reach the discovery stage",
		}
	}
	return nil
}

// Lock permits locking a shortlisted university. Requires at least the
// discovery stage and an existing shortlist entry for the pair.
func (g *Guard) Lock(ctx context.Context, userID, universityID string) error {
	profile, err := g.store.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile.CurrentStage < core.StageDiscovery {
		return &Error{
			Reason:  ReasonStageTooLow,
			Message: "locking unlocks once you reach the discovery stage",
		}
	}
	_, err = g.store.GetShortlistEntry(ctx, userID, universityID)
	if errors.Is(err, store.ErrNotFound) {
		return &Error{
			Reason:  ReasonNotShortlisted,
			Message: "shortlist this university before locking it",
		}
	}
	if err != nil {
		return fmt.Errorf("load shortlist entry: %w", err)
	}
	return nil
}

// CreateTask permits task creation. General tasks (no university reference)
// are unrestricted; university-scoped tasks require that entry to be locked.
func (g *Guard) CreateTask(ctx context.Context, userID, universityID string) error {
	if universityID == "" {
		return nil
	}
	entry, err := g.store.GetShortlistEntry(ctx, userID, universityID)
	if errors.Is(err, store.ErrNotFound) {
		return &Error{
			Reason:  ReasonNotLocked,
			Message: "lock this university before creating tasks for it",
		}
	}
	if err != nil {
		return fmt.Errorf("load shortlist entry: %w", err)
	}
	if !entry.Locked {
		return &Error{
			Reason:  ReasonNotLocked,
			Message: "lock this university before creating tasks for it",
		}
	}
	return nil
}
