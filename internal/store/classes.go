package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// CreateClass inserts a new class owned by its teacher.
func (s *Store) CreateClass(ctx context.Context, class *types.Class) error {
	if err := s.db.WithContext(ctx).Create(class).Error; err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

// GetClass resolves a class and its enrolled roster.
func (s *Store) GetClass(ctx context.Context, classID string) (*types.Class, error) {
	var class types.Class
	err := s.db.WithContext(ctx).First(&class, "id = ?", classID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interfaces.ErrClassNotFound
		}
		return nil, fmt.Errorf("failed to query class: %w", err)
	}
	return &class, nil
}

// AddStudent appends a student to the class roster. Adding a student who is
// already enrolled is a no-op.
func (s *Store) AddStudent(ctx context.Context, classID, studentID string) (*types.Class, error) {
	class, err := s.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.Enrolled(studentID) {
		return class, nil
	}

	class.StudentIDs = append(class.StudentIDs, studentID)
	if err := s.db.WithContext(ctx).Model(class).Update("student_ids", class.StudentIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to update roster: %w", err)
	}
	return class, nil
}
