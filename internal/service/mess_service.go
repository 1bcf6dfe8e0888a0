package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// MessService manages the household itself: creation, membership, the
// manager handover and cutoff configuration.
type MessService struct {
	store           storage.Store
	defaultTimezone string
}

// NewMessService creates a new MessService. defaultTimezone is applied to
// messes created without an explicit timezone; empty falls back to
// Asia/Dhaka.
func NewMessService(store storage.Store, defaultTimezone string) *MessService {
	if defaultTimezone == "" {
		defaultTimezone = "Asia/Dhaka"
	}
	return &MessService{store: store, defaultTimezone: defaultTimezone}
}

// CreateMess bootstraps a new mess for the founding user: the mess row,
// the founder as manager, the first open cycle covering the current
// month and the default cutoff config, all in one transaction.
func (s *MessService) CreateMess(ctx context.Context, userID, name, address, timezone string) (*models.Mess, error) {
	if name == "" {
		return nil, fmt.Errorf("mess name required: %w", ErrInvalidInput)
	}
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", timezone, ErrInvalidInput)
	}

	now := time.Now()
	nowUnix := now.Unix()
	localNow := now.In(loc)

	mess := &models.Mess{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   address,
		CreatedBy: userID,
		Timezone:  timezone,
		CreatedAt: nowUnix,
		UpdatedAt: nowUnix,
	}
	manager := &models.Member{
		ID:        uuid.New().String(),
		MessID:    mess.ID,
		UserID:    userID,
		Role:      models.RoleManager,
		Status:    models.StatusActive,
		JoinDate:  localNow.Format(models.DateLayout),
		CreatedAt: nowUnix,
		UpdatedAt: nowUnix,
	}

	monthStart := time.Date(localNow.Year(), localNow.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	firstCycle := &models.Cycle{
		ID:        uuid.New().String(),
		MessID:    mess.ID,
		Name:      localNow.Format("January 2006"),
		StartDate: monthStart.Format(models.DateLayout),
		EndDate:   monthEnd.Format(models.DateLayout),
		Status:    models.CycleOpen,
		CreatedAt: nowUnix,
		UpdatedAt: nowUnix,
	}

	if err := s.store.CreateMess(ctx, mess, manager, firstCycle); err != nil {
		return nil, err
	}

	slog.Info("mess created",
		"mess_id", mess.ID, "name", name, "manager_user", userID)
	return mess, nil
}

// Mess returns the mess record.
func (s *MessService) Mess(ctx context.Context, actor Actor) (*models.Mess, error) {
	return s.store.GetMess(ctx, actor.MessID)
}

// AddMember adds a user to the mess by email. Manager-only; the new
// member starts active with the member role unless a cook is requested.
func (s *MessService) AddMember(ctx context.Context, actor Actor, email string, role models.Role) (*models.Member, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleMember
	}
	if role == models.RoleManager {
		return nil, fmt.Errorf("the manager role moves only by transfer: %w", ErrInvalidInput)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("no account for %s: %w", email, ErrNotFound)
	}

	mess, err := s.store.GetMess(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(mess.Timezone)
	if err != nil {
		loc = time.UTC
	}

	now := time.Now()
	member := &models.Member{
		ID:        uuid.New().String(),
		MessID:    actor.MessID,
		UserID:    user.ID,
		Role:      role,
		Status:    models.StatusActive,
		JoinDate:  now.In(loc).Format(models.DateLayout),
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, err
	}

	logActivity(ctx, s.store, actor, "member.add", email)
	return member, nil
}

// Members lists the mess's members, managers first.
func (s *MessService) Members(ctx context.Context, actor Actor, activeOnly bool) ([]models.Member, error) {
	return s.store.ListMembers(ctx, actor.MessID, activeOnly)
}

// TransferManager hands the manager role to another active member in one
// atomic swap.
func (s *MessService) TransferManager(ctx context.Context, actor Actor, toMemberID string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if toMemberID == actor.MemberID {
		return fmt.Errorf("cannot transfer to self: %w", ErrInvalidInput)
	}
	if err := s.store.TransferManager(ctx, actor.MessID, actor.MemberID, toMemberID); err != nil {
		return err
	}

	slog.Info("manager transferred",
		"mess_id", actor.MessID, "from", actor.MemberID, "to", toMemberID)
	logActivity(ctx, s.store, actor, "member.transfer_manager", toMemberID)
	return nil
}

// CutoffConfig returns the mess's meal edit deadlines.
func (s *MessService) CutoffConfig(ctx context.Context, actor Actor) (*models.CutoffConfig, error) {
	return s.store.GetCutoffConfig(ctx, actor.MessID)
}

// UpdateCutoffs replaces the mess's cutoff times. Manager-only; times
// are "HH:MM" in the mess's timezone.
func (s *MessService) UpdateCutoffs(ctx context.Context, actor Actor, breakfast, lunch, dinner string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	for _, t := range []string{breakfast, lunch, dinner} {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("bad cutoff time %q: %w", t, ErrInvalidInput)
		}
	}

	cfg := &models.CutoffConfig{
		MessID:          actor.MessID,
		BreakfastCutoff: breakfast,
		LunchCutoff:     lunch,
		DinnerCutoff:    dinner,
	}
	if err := s.store.UpdateCutoffConfig(ctx, cfg); err != nil {
		return err
	}
	logActivity(ctx, s.store, actor, "mess.update_cutoffs",
		fmt.Sprintf("%s/%s/%s", breakfast, lunch, dinner))
	return nil
}

// Activity returns the mess's recent audit entries.
func (s *MessService) Activity(ctx context.Context, actor Actor, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListActivity(ctx, actor.MessID, limit)
}
