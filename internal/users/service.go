package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// EmailInUseMessage is shared by registration and admin edits.
const EmailInUseMessage = "email already in use"

// Service backs the admin user screens.
type Service interface {
	List(ctx context.Context) ([]UserDTO, error)
	Get(ctx context.Context, id uint) (*UserDTO, error)
	Update(ctx context.Context, id uint, input UpdateUserDTO) (*UserDTO, error)
	Delete(ctx context.Context, actorID, id uint) error
}

type service struct {
	repo *Repository
}

// NewService constructs the admin user service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uint) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateUserDTO) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}

	role, err := enums.ParseUserRole(strings.ToLower(strings.TrimSpace(input.Role)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	if email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, EmailInUseMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}
	}

	user.Name = name
	user.Email = email
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, EmailInUseMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete your own account")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "user has orders and cannot be deleted")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
