package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fintech/digibank/internal/domain"
	"github.com/fintech/digibank/internal/usecase"
	"github.com/fintech/digibank/internal/usecase/mocks"
)

func newUserUC() (*usecase.UserUseCase, *mocks.MockUserRepository, *mocks.MockTokenIssuer) {
	userRepo := mocks.NewMockUserRepository()
	issuer := mocks.NewMockTokenIssuer()
	uc := usecase.NewUserUseCase(userRepo, issuer)
	return uc, userRepo, issuer
}

func seedUserWithPassword(userRepo *mocks.MockUserRepository, username, password string, active bool) *domain.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return userRepo.Seed(&domain.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: string(hashed),
		Role:           domain.RoleUser,
		Active:         active,
	})
}

func TestUserUseCase_Register(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		email       string
		password    string
		setupMocks  func(userRepo *mocks.MockUserRepository)
		expectError bool
		errorType   error
	}{
		{
			name:     "successful registration",
			username: "alice",
			email:    "alice@example.com",
			password: "s3cret-password",
		},
		{
			name:        "invalid username",
			username:    "a",
			email:       "alice@example.com",
			password:    "s3cret-password",
			expectError: true,
			errorType:   domain.ErrInvalidUsername,
		},
		{
			name:        "invalid email",
			username:    "alice",
			email:       "not-an-email",
			password:    "s3cret-password",
			expectError: true,
			errorType:   domain.ErrInvalidEmail,
		},
		{
			name:        "weak password",
			username:    "alice",
			email:       "alice@example.com",
			password:    "short",
			expectError: true,
			errorType:   domain.ErrWeakPassword,
		},
		{
			name:     "duplicate username",
			username: "alice",
			email:    "alice@example.com",
			password: "s3cret-password",
			setupMocks: func(userRepo *mocks.MockUserRepository) {
				userRepo.Seed(&domain.User{Username: "alice", Active: true})
			},
			expectError: true,
			errorType:   domain.ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, userRepo, _ := newUserUC()
			if tt.setupMocks != nil {
				tt.setupMocks(userRepo)
			}

			user, err := uc.Register(context.Background(), tt.username, tt.email, tt.password)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, tt.errorType) {
					t.Errorf("expected error %v, got %v", tt.errorType, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.Role != domain.RoleUser {
				t.Errorf("expected user role, got %s", user.Role)
			}
			if !user.Active {
				t.Error("expected new user active")
			}
			if user.HashedPassword == tt.password {
				t.Error("expected password to be hashed")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(tt.password)); err != nil {
				t.Errorf("stored hash does not match password: %v", err)
			}
		})
	}
}

func TestUserUseCase_Login(t *testing.T) {
	t.Run("successful login returns a token", func(t *testing.T) {
		uc, userRepo, issuer := newUserUC()
		seedUserWithPassword(userRepo, "alice", "s3cret-password", true)

		expiry := time.Now().Add(time.Hour)
		issuer.IssueFunc = func(user *domain.User) (string, time.Time, error) {
			return "signed-token", expiry, nil
		}

		token, expiresAt, user, err := uc.Login(context.Background(), "alice", "s3cret-password")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "signed-token" {
			t.Errorf("unexpected token %q", token)
		}
		if !expiresAt.Equal(expiry) {
			t.Errorf("unexpected expiry %v", expiresAt)
		}
		if user.Username != "alice" {
			t.Errorf("unexpected user %s", user.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		uc, userRepo, _ := newUserUC()
		seedUserWithPassword(userRepo, "alice", "s3cret-password", true)

		_, _, _, err := uc.Login(context.Background(), "alice", "wrong-password")
		if !errors.Is(err, domain.ErrBadCredentials) {
			t.Fatalf("expected ErrBadCredentials, got %v", err)
		}
	})

	t.Run("unknown username is indistinguishable from wrong password", func(t *testing.T) {
		uc, _, _ := newUserUC()

		_, _, _, err := uc.Login(context.Background(), "nobody", "whatever1")
		if !errors.Is(err, domain.ErrBadCredentials) {
			t.Fatalf("expected ErrBadCredentials, got %v", err)
		}
	})

	t.Run("inactive user rejected", func(t *testing.T) {
		uc, userRepo, _ := newUserUC()
		seedUserWithPassword(userRepo, "alice", "s3cret-password", false)

		_, _, _, err := uc.Login(context.Background(), "alice", "s3cret-password")
		if !errors.Is(err, domain.ErrUserInactive) {
			t.Fatalf("expected ErrUserInactive, got %v", err)
		}
	})

	t.Run("failed login is audited", func(t *testing.T) {
		uc, userRepo, _ := newUserUC()
		auditRepo := mocks.NewMockAuditRepository()
		uc.WithAuditRepo(auditRepo)
		seedUserWithPassword(userRepo, "alice", "s3cret-password", true)

		_, _, _, _ = uc.Login(context.Background(), "alice", "wrong-password")

		if len(auditRepo.Logs) != 1 {
			t.Fatalf("expected 1 audit log, got %d", len(auditRepo.Logs))
		}
		if auditRepo.Logs[0].Status != string(domain.AuditStatusFailure) {
			t.Errorf("expected failure status, got %s", auditRepo.Logs[0].Status)
		}
	})
}

func TestUserUseCase_Get(t *testing.T) {
	uc, userRepo, _ := newUserUC()
	user := userRepo.Seed(&domain.User{Username: "alice", Active: true})

	t.Run("self read allowed", func(t *testing.T) {
		got, err := uc.Get(context.Background(), domain.Identity{UserID: user.ID, Role: domain.RoleUser}, user.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("expected user %d, got %d", user.ID, got.ID)
		}
	})

	t.Run("reading another user rejected", func(t *testing.T) {
		_, err := uc.Get(context.Background(), domain.Identity{UserID: 999, Role: domain.RoleUser}, user.ID)
		if !errors.Is(err, domain.ErrAccessDenied) {
			t.Fatalf("expected ErrAccessDenied, got %v", err)
		}
	})

	t.Run("admin may read anyone", func(t *testing.T) {
		if _, err := uc.Get(context.Background(), adminIdentity, user.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
