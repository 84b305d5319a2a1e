package services

import (
	"context"

	"github.com/princinho/sahoaccounts/models"
)

// CreateUserParams are the fields the service hands to the primary
// store. Password is raw; the store hashes before persisting. Social
// sign-ins pass an empty password, which leaves the account without a
// usable credential login.
type CreateUserParams struct {
	Name      string
	Email     string
	Password  string
	AvatarURL string
}

// UpdateUserParams carries profile field updates. Nil means unchanged.
type UpdateUserParams struct {
	Name  *string
	Email *string
}

// UserStore is the primary user storage collaborator. Lookups return
// ErrUserNotFound when absent; Create returns ErrDuplicateEmail on a
// unique-constraint violation.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, params CreateUserParams) (*models.User, error)
	ComparePassword(user *models.User, password string) bool

	UpdateInfo(ctx context.Context, id string, params UpdateUserParams) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, newPassword string) error
	UpdateAvatar(ctx context.Context, id string, avatar *models.Avatar) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// Mailer delivers templated mail. The service fails fast on delivery
// errors; no retry policy lives here.
type Mailer interface {
	Send(ctx context.Context, to, subject, template string, data any) error
}
