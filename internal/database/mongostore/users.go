package mongostore

import (
	"context"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.col(colUsers).InsertOne(ctx, u)
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"resetTokenHash": tokenHash})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.col(colUsers).FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	res, err := s.col(colUsers).ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.col(colUsers).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, f database.UserFilter) ([]models.User, int64, error) {
	f.Page = f.Page.Normalize()

	filter := bson.M{}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"name": contains(f.Search)},
			bson.M{"email": contains(f.Search)},
		}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}

	total, err := s.col(colUsers).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.col(colUsers).Find(ctx, filter, findPage(f.Page, bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
