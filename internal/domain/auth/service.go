package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"paydesk/internal/domain/employee"
)

type Service struct {
	store   employee.Store
	secret  string
	ttl     time.Duration
	revoker Revoker
}

func NewService(store employee.Store, secret string, ttl time.Duration, revoker Revoker) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, revoker: revoker}
}

type Session struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Code      int       `json:"code,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login checks the admin login first, then employee records. The admin must
// also pass a TOTP code when a secret is configured.
func (s *Service) Login(ctx context.Context, username, password, totpCode string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	admin, err := s.store.AdminLogin(ctx)
	switch {
	case err == nil && strings.EqualFold(admin.Username, username):
		if CheckPassword(admin.PasswordHash, password) != nil {
			return Session{}, ErrInvalidCredentials
		}
		if admin.TOTPSecret != "" {
			if totpCode == "" {
				return Session{}, ErrTOTPRequired
			}
			if !ValidateTOTP(totpCode, admin.TOTPSecret) {
				return Session{}, ErrInvalidTOTP
			}
		}
		return s.issue(Claims{UserID: admin.Username, Role: RoleAdmin})
	case err != nil && !errors.Is(err, employee.ErrAdminNotConfigured):
		return Session{}, err
	}

	rec, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if rec.PasswordHash == "" || CheckPassword(rec.PasswordHash, password) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(Claims{UserID: rec.Username, Role: RoleEmployee, Code: rec.Code})
}

func (s *Service) issue(claims Claims) (Session, error) {
	token, err := GenerateToken(s.secret, claims, s.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Role: claims.Role, Code: claims.Code, ExpiresAt: time.Now().Add(s.ttl)}, nil
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.TokenID == "" {
		return ErrInvalidToken
	}
	return s.revoker.Revoke(ctx, user.TokenID, user.ExpiresAt)
}

// Authenticate parses a bearer token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (UserContext, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return UserContext{}, err
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return UserContext{}, err
	}
	if revoked {
		return UserContext{}, ErrInvalidToken
	}
	return claims.User(), nil
}

func ValidateTOTP(code, secret string) bool {
	return totp.Validate(strings.TrimSpace(code), secret)
}
