package postgres

import (
	"context"
	"errors"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return internal.NewInternalError("failed to create user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch user", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch user", err)
	}
	return &u, nil
}

func (r *UserRepository) UsersWithRole(ctx context.Context, role string) ([]user.User, error) {
	var users []user.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Where("is_active = ?", true).
		Find(&users).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list users by role", err)
	}
	return users, nil
}

// HandlersForBusinessUnit lists active handler-role users belonging to a
// business unit. Membership lives in a JSON column, so the role query runs
// in SQL and the unit check in Go; handler headcount is small.
func (r *UserRepository) HandlersForBusinessUnit(ctx context.Context, businessUnit string) ([]user.User, error) {
	handlers, err := r.UsersWithRole(ctx, user.RoleHandler)
	if err != nil {
		return nil, err
	}

	var matched []user.User
	for _, u := range handlers {
		if u.BelongsTo(businessUnit) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}
