package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// CreateUser inserts a new account. A duplicate email surfaces as
// interfaces.ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return interfaces.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail looks an account up by its unique email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// GetUser looks an account up by id.
func (s *Store) GetUser(ctx context.Context, userID string) (*types.User, error) {
	var user types.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// ListStudents returns every account with the student role.
func (s *Store) ListStudents(ctx context.Context) ([]*types.User, error) {
	var students []*types.User
	err := s.db.WithContext(ctx).Where("role = ?", types.RoleStudent).Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}
