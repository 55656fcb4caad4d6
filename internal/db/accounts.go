package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-portal/internal/core"
	"hospital-portal/pkg"
)

// userRecord is the gorm model of the users table created by schema.sql.
type userRecord struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

func (u *userRecord) toUser() *pkg.User {
	return &pkg.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         pkg.Role(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

// AccountRepository implements core.AccountStore with gorm.
type AccountRepository struct {
	DB *gorm.DB
}

var _ core.AccountStore = (*AccountRepository)(nil)

// OpenGorm wraps an open connection pool in a gorm handle.  Schema changes
// stay in schema.sql; gorm only maps rows.
func OpenGorm(sqlDB *sql.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return gdb, nil
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(gdb *gorm.DB) *AccountRepository {
	return &AccountRepository{DB: gdb}
}

func (r *AccountRepository) CreateUser(ctx context.Context, u *pkg.User) error {
	rec := userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
	if err := r.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetUserByEmail(ctx context.Context, email string) (*pkg.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *AccountRepository) GetUserByID(ctx context.Context, id string) (*pkg.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *AccountRepository) first(ctx context.Context, cond string, arg interface{}) (*pkg.User, error) {
	var rec userRecord
	err := r.DB.WithContext(ctx).Where(cond, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func (r *AccountRepository) CountUsers(ctx context.Context) (int, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&userRecord{}).Count(&n).Error
	return int(n), err
}
