package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fintech/digibank/internal/domain"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// UserUseCase handles registration and authentication.
type UserUseCase struct {
	userRepo  UserRepository
	issuer    TokenIssuer
	auditRepo AuditRepository
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository, issuer TokenIssuer) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// WithAuditRepo enables audit logging of logins.
func (uc *UserUseCase) WithAuditRepo(auditRepo AuditRepository) *UserUseCase {
	uc.auditRepo = auditRepo
	return uc
}

// Register creates a new user with the user role.
func (uc *UserUseCase) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := uc.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hashed),
		Role:           domain.RoleUser,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and returns a signed token. Credential
// failures are indistinguishable from unknown usernames.
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (string, time.Time, *domain.User, error) {
	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", time.Time{}, nil, domain.ErrBadCredentials
		}
		return "", time.Time{}, nil, err
	}

	if !user.Active {
		return "", time.Time{}, nil, domain.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		uc.auditLogin(ctx, user.ID, domain.ErrBadCredentials)
		return "", time.Time{}, nil, domain.ErrBadCredentials
	}

	token, expiresAt, err := uc.issuer.Issue(user)
	if err != nil {
		return "", time.Time{}, nil, err
	}

	uc.auditLogin(ctx, user.ID, nil)

	return token, expiresAt, user, nil
}

// Get returns a user profile. Non-admins may only read themselves.
func (uc *UserUseCase) Get(ctx context.Context, caller domain.Identity, id int64) (*domain.User, error) {
	if !caller.IsAdmin() && caller.UserID != id {
		return nil, domain.ErrAccessDenied
	}

	return uc.userRepo.GetByID(ctx, id)
}

func (uc *UserUseCase) auditLogin(ctx context.Context, userID int64, opErr error) {
	if uc.auditRepo == nil {
		return
	}

	log := &domain.AuditLog{
		UserID:       userID,
		Action:       string(domain.AuditActionUserLogin),
		ResourceType: "user",
		ResourceID:   userID,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}

	if opErr != nil {
		log.Status = string(domain.AuditStatusFailure)
		log.ErrorMessage = opErr.Error()
	}

	_ = uc.auditRepo.Create(ctx, log)
}
