package sqlstore

import (
	"context"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"github.com/google/uuid"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("reset_token_hash = ?", tokenHash).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	if err := s.exists(ctx, &models.User{}, u.ID); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Save(u).Error)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, f database.UserFilter) ([]models.User, int64, error) {
	f.Page = f.Page.Normalize()

	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Search != "" {
		q = q.Where("name LIKE ? OR email LIKE ?", like(f.Search), like(f.Search))
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Order("created_at desc").Offset(f.Offset()).Limit(f.Limit).Find(&users).Error
	return users, total, err
}
