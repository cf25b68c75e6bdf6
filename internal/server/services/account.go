// Package services contains server-side business logic. This file
// implements AccountService, which orchestrates account registration,
// login, lookup, paginated listing, partial update, and deletion while
// enforcing the validation and uniqueness rules.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmpavlov/userkeeper/internal/common"
	"github.com/dmpavlov/userkeeper/internal/logging"
	"github.com/dmpavlov/userkeeper/internal/security"
	"github.com/dmpavlov/userkeeper/internal/server/auth"
	"github.com/dmpavlov/userkeeper/internal/server/config"
	"github.com/dmpavlov/userkeeper/internal/server/models"
	"github.com/dmpavlov/userkeeper/internal/server/repositories/accounts"
)

const defaultPageSize = 10

// PhoneParams describes one phone number supplied by the caller.
type PhoneParams struct {
	Number      string
	CityCode    string
	CountryCode string
}

// CreateAccountParams defines the parameters for account registration.
// A nil Phones list is treated as empty.
type CreateAccountParams struct {
	Name     string
	Email    string
	Password string
	Phones   []PhoneParams
}

// UpdateAccountParams defines the optional parameters for a partial update.
// A nil field is left untouched. Phones is a pointer to a slice so an
// explicit empty list (clear all phones) stays distinguishable from an
// absent one.
type UpdateAccountParams struct {
	Name     *string
	Email    *string
	Password *string
	Active   *bool
	Phones   *[]PhoneParams
}

// PhoneView is the caller-facing projection of a phone.
type PhoneView struct {
	Number      string
	CityCode    string
	CountryCode string
}

// AccountView is the read-only projection returned to callers. It never
// carries the password hash.
type AccountView struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
	LastLogin time.Time
	Phones    []PhoneView
}

// PagedAccounts is a page of account projections plus paging metadata.
type PagedAccounts struct {
	Content       []*AccountView
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// AccountService provides the account lifecycle operations:
//   - Create: validate, hash, mint a session token, persist
//   - Authenticate: verify credentials, refresh last login and token
//   - GetByID / List / Update / Delete
//
// The service is stateless; all mutable state lives in the repository.
type AccountService struct {
	repo            accounts.Repository
	logger          logging.Logger
	emailPattern    *regexp.Regexp
	passwordPattern *regexp.Regexp
	jwtSecret       []byte
	tokenValidity   time.Duration
}

// NewAccountService constructs an AccountService using the repository and
// server config. The email and password patterns come from config and are
// compiled once here.
func NewAccountService(repo accounts.Repository, logger logging.Logger, cfg *config.Config) (*AccountService, error) {
	emailPattern, err := regexp.Compile(cfg.EmailRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid email pattern: %w", err)
	}

	passwordPattern, err := regexp.Compile(cfg.PasswordRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid password pattern: %w", err)
	}

	return &AccountService{
		repo:            repo,
		logger:          logger.With("module", "accounts"),
		emailPattern:    emailPattern,
		passwordPattern: passwordPattern,
		jwtSecret:       []byte(cfg.SecretKey),
		tokenValidity:   cfg.TokenValidityDuration,
	}, nil
}

// Create registers a new account. The identity is assigned here so the
// session token can be bound to it before the record is persisted.
func (s *AccountService) Create(ctx context.Context, params CreateAccountParams) (*AccountView, error) {
	s.logger.Info(ctx, "creating account", "email", params.Email)

	if !s.emailPattern.MatchString(params.Email) {
		return nil, common.InvalidEmail(params.Email)
	}
	if !s.passwordPattern.MatchString(params.Password) {
		return nil, common.InvalidPassword()
	}

	if _, err := s.repo.FindByEmail(ctx, params.Email); err == nil {
		return nil, common.EmailAlreadyExists(params.Email)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("email lookup error: %w", err)
	}

	hash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("password hashing error: %w", err)
	}

	now := time.Now()
	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLogin:    now,
		Phones:       toModelPhones(params.Phones),
	}

	token, err := auth.GenerateToken(account.ID, account.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}
	account.Token = token

	saved, err := s.repo.Save(ctx, account)
	if err != nil {
		// the store is the serialization point for concurrent creates
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.EmailAlreadyExists(params.Email)
		}
		return nil, fmt.Errorf("error saving account: %w", err)
	}

	s.logger.Info(ctx, "account created", "id", saved.ID)
	return toView(saved), nil
}

// Authenticate verifies the credentials and, on success, refreshes the
// last-login timestamp and issues a fresh session token. An unknown email
// and a wrong password fail identically.
func (s *AccountService) Authenticate(ctx context.Context, email, rawPassword string) (*AccountView, error) {
	s.logger.Info(ctx, "login attempt", "email", email)

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "login failed", "email", email)
			return nil, common.InvalidCredentials()
		}
		return nil, fmt.Errorf("email lookup error: %w", err)
	}

	if !security.VerifyPassword(rawPassword, account.PasswordHash) {
		s.logger.Warn(ctx, "login failed", "email", email)
		return nil, common.InvalidCredentials()
	}

	token, err := auth.GenerateToken(account.ID, account.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	now := time.Now()
	account.LastLogin = now
	account.UpdatedAt = now
	account.Token = token

	saved, err := s.repo.Save(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("error saving account: %w", err)
	}

	s.logger.Info(ctx, "login successful", "id", saved.ID)
	return toView(saved), nil
}

// GetByID fetches a single account projection.
func (s *AccountService) GetByID(ctx context.Context, id string) (*AccountView, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound(id)
		}
		return nil, fmt.Errorf("account lookup error: %w", err)
	}
	return toView(account), nil
}

// List returns a page of accounts in the store's natural order. Negative
// pages normalize to 0 and non-positive sizes to the default size; an
// out-of-range page yields empty content, never an error.
func (s *AccountService) List(ctx context.Context, page, size int) (*PagedAccounts, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}

	items, err := s.repo.FindPage(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("page lookup error: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count error: %w", err)
	}

	content := make([]*AccountView, 0, len(items))
	for _, account := range items {
		content = append(content, toView(account))
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}

	return &PagedAccounts{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// Update applies a partial update. Each field is optional; blank name,
// email, or password values are ignored. A supplied password is always
// hashed before storage.
func (s *AccountService) Update(ctx context.Context, id string, params UpdateAccountParams) (*AccountView, error) {
	s.logger.Info(ctx, "updating account", "id", id)

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFound(id)
		}
		return nil, fmt.Errorf("account lookup error: %w", err)
	}

	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		account.Name = *params.Name
	}

	if params.Email != nil && strings.TrimSpace(*params.Email) != "" {
		newEmail := *params.Email
		if !s.emailPattern.MatchString(newEmail) {
			return nil, common.InvalidEmail(newEmail)
		}
		// a change only in casing needs no uniqueness check
		if !strings.EqualFold(newEmail, account.Email) {
			if _, err := s.repo.FindByEmail(ctx, newEmail); err == nil {
				return nil, common.EmailAlreadyExists(newEmail)
			} else if !errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("email lookup error: %w", err)
			}
		}
		account.Email = newEmail
	}

	if params.Password != nil && strings.TrimSpace(*params.Password) != "" {
		if !s.passwordPattern.MatchString(*params.Password) {
			return nil, common.InvalidPassword()
		}
		hash, err := security.HashPassword(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("password hashing error: %w", err)
		}
		account.PasswordHash = hash
	}

	if params.Active != nil {
		account.Active = *params.Active
	}

	if params.Phones != nil {
		account.Phones = toModelPhones(*params.Phones)
	}

	account.UpdatedAt = time.Now()

	saved, err := s.repo.Save(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.EmailAlreadyExists(account.Email)
		}
		return nil, fmt.Errorf("error saving account: %w", err)
	}

	s.logger.Info(ctx, "account updated", "id", saved.ID)
	return toView(saved), nil
}

// Delete removes the account. Subsequent lookups by this id fail with a
// not-found condition.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "delete failed: account not found", "id", id)
			return common.NotFound(id)
		}
		return fmt.Errorf("account lookup error: %w", err)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NotFound(id)
		}
		return fmt.Errorf("error deleting account: %w", err)
	}

	s.logger.Info(ctx, "account deleted", "id", id)
	return nil
}

// --- helpers below ---

func toModelPhones(params []PhoneParams) []models.Phone {
	phones := make([]models.Phone, 0, len(params))
	for _, p := range params {
		phones = append(phones, models.Phone{
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}
	return phones
}

func toView(account *models.Account) *AccountView {
	phones := make([]PhoneView, 0, len(account.Phones))
	for _, p := range account.Phones {
		phones = append(phones, PhoneView{
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}

	return &AccountView{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Active:    account.Active,
		Token:     account.Token,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
		LastLogin: account.LastLogin,
		Phones:    phones,
	}
}
