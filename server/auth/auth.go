package auth

import (
	"context"

	"github.com/Daskott/dispatch/server/models"
	"github.com/Daskott/dispatch/server/storage"
	"github.com/pkg/errors"
)

// Credentials is the login payload. Identifier is a username or a phone number.
type Credentials struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Authenticate returns the user named by identifier when password matches it
// exactly. This is a demo check: passwords are stored and compared in clear
// text. Any mismatch is reported as models.ErrNotFound.
func Authenticate(ctx context.Context, store storage.Storage, identifier, password string) (*models.User, error) {
	user, err := store.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if user.Password != password {
		return nil, errors.Wrap(models.ErrNotFound, "Authenticate: password mismatch")
	}

	return user, nil
}
