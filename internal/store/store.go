// Package store persists users, classes and attendance records in sqlite
// through gorm. It backs the interfaces the session coordinator and the
// HTTP API consume.
package store

import (
	"context"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rollcall/pkg/types"
)

// Store implements interfaces.UserStore, interfaces.ClassStore and
// interfaces.AttendanceStore on a single gorm handle.
type Store struct {
	db *gorm.DB
}

// Open opens the sqlite database at path and migrates the schema.
// WAL keeps the file usable for concurrent readers alongside the single
// writer gorm serializes for us.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&types.User{}, &types.Class{}, &types.AttendanceRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Println("Database schema migrated")
	return nil
}

// Ping verifies the underlying connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
