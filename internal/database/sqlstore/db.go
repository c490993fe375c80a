// Package sqlstore implements database.Store on GORM (MySQL in production,
// SQLite for local runs and tests).
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

var _ database.Store = (*Store)(nil)

// Open connects to driver ("mysql" or "sqlite"), waiting for the database to
// come up, and syncs the schema.
func Open(driver, dsn string, logLevel logger.LogLevel) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	var (
		db  *gorm.DB
		err error
	)
	// Wait for the DB to be ready
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger:         logger.Default.LogMode(logLevel),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		slog.Warn("failed to connect to database, retrying", "attempt", i+1, "err", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect after 5 attempts: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer; serialize through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db)
}

// OpenMemory opens a private in-memory SQLite database.
func OpenMemory(name string) (*Store, error) {
	return Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Silent)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.Cart{},
		&models.Settings{},
		&models.WebhookEvent{},
		&models.PaymentIntent{},
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.ErrDuplicate
	default:
		return err
	}
}

func (s *Store) exists(ctx context.Context, model interface{}, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func like(s string) string {
	return "%" + s + "%"
}
