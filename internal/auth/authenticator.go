package auth

import (
	"context"

	"github.com/mrahman/messbook/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The abstraction keeps the service layer independent of the credential
// scheme (password today, OAuth or magic links later).
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, fullName, credential string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user if valid.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the implementation's
	// requirements (length, format).
	ValidateCredential(credential string) error
}
