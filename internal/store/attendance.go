package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// SaveBatch writes the final records of a completed session in a single
// transaction, so the roster lands exactly once or not at all.
func (s *Store) SaveBatch(ctx context.Context, records []*types.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
	}
	if err := s.db.WithContext(ctx).Create(records).Error; err != nil {
		return fmt.Errorf("failed to persist attendance batch: %w", err)
	}
	return nil
}

// GetRecord returns the most recent persisted record for a student in a
// class, for the post-session status lookup.
func (s *Store) GetRecord(ctx context.Context, classID, studentID string) (*types.AttendanceRecord, error) {
	var record types.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interfaces.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query attendance record: %w", err)
	}
	return &record, nil
}
