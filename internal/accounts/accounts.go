// Package accounts handles sign-up, sign-in, profiles and admin user management.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/auth"
	"thekua-api/internal/database"
	"thekua-api/internal/mailer"
	"thekua-api/internal/models"
	"thekua-api/internal/utils"
	"thekua-api/internal/validation"
)

const (
	resetTokenTTL = time.Hour
	maxAddresses  = 5
	mailTimeout   = 30 * time.Second
)

var errBadCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)

type Store interface {
	database.UserStore
	database.ProductStore
}

type Service struct {
	store       Store
	tokens      *auth.TokenManager
	mail        mailer.Mailer
	frontendURL string
	log         *slog.Logger
	now         func() time.Time
}

func NewService(store Store, tokens *auth.TokenManager, mail mailer.Mailer, frontendURL string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:       store,
		tokens:      tokens,
		mail:        mail,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log.With("component", "accounts"),
		now:         time.Now,
	}
}

// Session is what a successful sign-in returns.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,in_phone"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         models.RoleUser,
		IsActive:     true,
		Addresses:    []models.Address{},
		Wishlist:     []string{},
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email is already registered", apperr.ErrDuplicate)
		}
		return nil, err
	}

	s.log.Info("user registered", "user", u.ID)
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errBadCredentials
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", apperr.ErrForbidden)
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.store.UpdateUser(ctx, u); err != nil {
		s.log.Warn("failed to record login time", "user", u.ID, "err", err)
	}
	return s.session(u)
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// Me returns an active user by id.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", apperr.ErrForbidden)
	}
	return u, nil
}

type ProfileInput struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone  *string `json:"phone" validate:"omitempty,in_phone"`
	Avatar *string `json:"avatar" validate:"omitempty,max=500"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (s *Service) ChangePassword(ctx context.Context, userID string, in PasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		return apperr.Invalid("currentPassword", "is incorrect")
	}
	if u.PasswordHash, err = auth.HashPassword(in.NewPassword); err != nil {
		return err
	}
	return s.store.UpdateUser(ctx, u)
}

// ForgotPassword issues a reset token for a known email and mails the link in
// the background. Unknown emails succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return nil
	}

	token := utils.NewToken()
	expires := s.now().Add(resetTokenTTL)
	u.ResetTokenHash = utils.HashToken(token)
	u.ResetTokenExpiresAt = &expires
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}

	link := s.frontendURL + "/reset-password?token=" + token
	to := u.Email
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		body := "Use the link below to reset your TheKua password. It expires in one hour.\n\n" + link
		if err := s.mail.Send(ctx, to, "Reset your TheKua password", body); err != nil {
			s.log.Error("failed to send reset email", "user", u.ID, "err", err)
		}
	}()
	return nil
}

type ResetInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (s *Service) ResetPassword(ctx context.Context, in ResetInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	invalid := apperr.Invalid("token", "reset link is invalid or has expired")

	u, err := s.store.GetUserByResetToken(ctx, utils.HashToken(in.Token))
	if errors.Is(err, apperr.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if u.ResetTokenExpiresAt == nil || s.now().After(*u.ResetTokenExpiresAt) {
		return invalid
	}

	if u.PasswordHash, err = auth.HashPassword(in.Password); err != nil {
		return err
	}
	u.ResetTokenHash = ""
	u.ResetTokenExpiresAt = nil
	return s.store.UpdateUser(ctx, u)
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	err = s.store.CreateUser(ctx, &models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		Addresses:    []models.Address{},
		Wishlist:     []string{},
	})
	if err != nil && !errors.Is(err, apperr.ErrDuplicate) {
		return err
	}
	s.log.Info("admin account seeded", "email", email)
	return nil
}
