package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// Actor is the resolved identity behind a call: the authenticated user
// and their membership in the mess being operated on. Every mutating
// operation takes one explicitly; nothing reads identity from ambient
// state.
type Actor struct {
	UserID   string
	MemberID string
	MessID   string
	Role     models.Role
}

// IsManager reports whether the actor holds the manager role.
func (a Actor) IsManager() bool {
	return a.Role == models.RoleManager
}

// ResolveActor looks up the actor's membership in the given mess.
// Returns ErrUnauthorized when the user is not an active member.
func ResolveActor(ctx context.Context, store storage.Store, messID, userID string) (Actor, error) {
	member, err := store.GetMemberByUser(ctx, messID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Actor{}, fmt.Errorf("user %s is not a member of mess %s: %w",
			userID, messID, ErrUnauthorized)
	}
	if err != nil {
		return Actor{}, fmt.Errorf("failed to resolve membership: %w", err)
	}
	if member.Status != models.StatusActive {
		return Actor{}, fmt.Errorf("user %s has no active membership in mess %s: %w",
			userID, messID, ErrUnauthorized)
	}
	return Actor{
		UserID:   userID,
		MemberID: member.ID,
		MessID:   messID,
		Role:     member.Role,
	}, nil
}

// cycleForActor loads a cycle and checks it belongs to the actor's mess.
// A foreign cycle id reads as ErrNotFound, indistinguishable from a
// missing one, so cycle ids never leak data across messes.
func cycleForActor(ctx context.Context, store storage.Store, actor Actor, cycleID string) (*models.Cycle, error) {
	cycle, err := store.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle.MessID != actor.MessID {
		return nil, fmt.Errorf("cycle %s: %w", cycleID, ErrNotFound)
	}
	return cycle, nil
}

func requireManager(actor Actor) error {
	if !actor.IsManager() {
		return fmt.Errorf("member %s is not the manager: %w", actor.MemberID, ErrUnauthorized)
	}
	return nil
}
