package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mrahman/messbook/internal/models"
)

// memoryUserStore is an in-memory UserStorage, keyed by email and id.
type memoryUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (s *memoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *memoryUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.byEmail[email], nil
}

func (s *memoryUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return s.byID[id], nil
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	auth := NewPasswordAuthenticator(newMemoryUserStore())

	t.Run("register and authenticate", func(t *testing.T) {
		user, err := auth.Register(ctx, "nadia@example.com", "Nadia Islam", "correct-horse")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.PasswordHash == "correct-horse" {
			t.Fatal("password stored in the clear")
		}

		got, err := auth.Authenticate(ctx, "nadia@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("authenticated user id = %s, want %s", got.ID, user.ID)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		if _, err := auth.Authenticate(ctx, "nadia@example.com", "wrong-horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email rejected the same way", func(t *testing.T) {
		if _, err := auth.Authenticate(ctx, "ghost@example.com", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		if _, err := auth.Register(ctx, "short@example.com", "Short", "2short"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Register = %v, want ErrWeakPassword", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		if _, err := auth.Register(ctx, "nadia@example.com", "Nadia Again", "another-pass"); !errors.Is(err, ErrEmailExists) {
			t.Errorf("Register = %v, want ErrEmailExists", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "nadia@example.com"}
	manager := NewJWTManager("test-secret-key-of-decent-length", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := manager.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		claims, err := manager.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != user.ID || claims.Email != user.Email {
			t.Errorf("claims = (%s, %s), want (%s, %s)",
				claims.UserID, claims.Email, user.ID, user.Email)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token, err := manager.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		other := NewJWTManager("a-completely-different-secret-key", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate with wrong secret = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		shortLived := NewJWTManager("test-secret-key-of-decent-length", -time.Minute)
		token, err := shortLived.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := shortLived.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate of expired token = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := manager.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate of garbage = %v, want ErrInvalidToken", err)
		}
	})
}
