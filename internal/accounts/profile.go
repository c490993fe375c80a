package accounts

import (
	"context"
	"fmt"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"
	"thekua-api/internal/validation"
)

// Wishlist returns the products a user saved, skipping ones since removed.
func (s *Service) Wishlist(ctx context.Context, userID string) ([]models.Product, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.GetProductsByIDs(ctx, u.Wishlist)
}

func (s *Service) AddToWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range u.Wishlist {
		if id == productID {
			return u.Wishlist, nil
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u.Wishlist, nil
}

func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID string) ([]string, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(u.Wishlist))
	for _, id := range u.Wishlist {
		if id != productID {
			kept = append(kept, id)
		}
	}
	u.Wishlist = kept
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u.Wishlist, nil
}

func (s *Service) Addresses(ctx context.Context, userID string) ([]models.Address, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Addresses == nil {
		return []models.Address{}, nil
	}
	return u.Addresses, nil
}

func (s *Service) AddAddress(ctx context.Context, userID string, a models.Address) ([]models.Address, error) {
	if err := validation.Struct(a); err != nil {
		return nil, err
	}
	if a.Country == "" {
		a.Country = "India"
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(u.Addresses) >= maxAddresses {
		return nil, apperr.Invalid("addresses", fmt.Sprintf("at most %d addresses can be saved", maxAddresses))
	}
	u.Addresses = append(u.Addresses, a)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

func (s *Service) RemoveAddress(ctx context.Context, userID string, index int) ([]models.Address, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(u.Addresses) {
		return nil, fmt.Errorf("address: %w", apperr.ErrNotFound)
	}
	u.Addresses = append(u.Addresses[:index], u.Addresses[index+1:]...)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

// --- Admin ---

func (s *Service) ListUsers(ctx context.Context, f database.UserFilter) ([]models.User, int64, error) {
	return s.store.ListUsers(ctx, f)
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

type AdminUserInput struct {
	Role     *models.Role `json:"role" validate:"omitempty,oneof=user admin"`
	IsActive *bool        `json:"isActive"`
}

// AdminUpdateUser changes role or active flag. Admins cannot demote or
// disable themselves.
func (s *Service) AdminUpdateUser(ctx context.Context, actorID, id string, in AdminUserInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if actorID == id {
		if in.Role != nil && *in.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: you cannot change your own role", apperr.ErrForbidden)
		}
		if in.IsActive != nil && !*in.IsActive {
			return nil, fmt.Errorf("%w: you cannot disable your own account", apperr.ErrForbidden)
		}
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user updated by admin", "user", id, "actor", actorID, "role", u.Role, "active", u.IsActive)
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("%w: you cannot delete your own account", apperr.ErrForbidden)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted by admin", "user", id, "actor", actorID)
	return nil
}
