package repository

import (
	"context"

	"github.com/oksasatya/user-account-service/internal/domain/entity"
)

// UserRepository defines the credential store operations.
//
// Implementations report a missing record with apperr.ErrNotFound and a
// userName/email collision with apperr.ErrConflict. Reads leave
// entity.User.Password empty except for GetByIdentifier.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIdentifier matches identifier against email when it contains '@'
	// (case-insensitively) and against userName otherwise. The result
	// includes the password digest.
	GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}
