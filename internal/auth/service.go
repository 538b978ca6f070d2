// Package auth signs staff in and out. Service is shared by the process;
// Client is created per browser session and implements Gateway on top of it.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nexxacraft/community-admin/internal/config"
	"github.com/nexxacraft/community-admin/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailRequired      = errors.New("email required")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailTaken         = errors.New("email already registered")
)

const minPasswordLength = 8

// Identity is the signed-in staff member as seen by the dashboard.
type Identity struct {
	AccountID   uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role"`
	SessionID   uuid.UUID `json:"-"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Token is an issued access token and the identity it carries.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity
}

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

type Service struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer Mailer
	now    func() time.Time
}

func NewService(db *gorm.DB, cfg *config.Config, mailer Mailer) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{db: db, cfg: cfg, mailer: mailer, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) CreateAccount(ctx context.Context, email, password, displayName string) (*models.StaffAccount, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	var existing models.StaffAccount
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.StaffAccount{
		ID:          uuid.New(),
		Email:       email,
		Password:    string(hash),
		DisplayName: strings.TrimSpace(displayName),
		Role:        string(models.RoleAdmin),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// Authenticate checks credentials and issues an access token bound to a new
// server-side session.
func (s *Service) Authenticate(ctx context.Context, email, password, userAgent string) (*Token, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	var account models.StaffAccount
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if account.Disabled {
		return nil, ErrAccountDisabled
	}

	now := s.now().UTC()
	session := models.AuthSession{
		ID:        uuid.New(),
		AccountID: account.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		UserAgent: truncate(userAgent, 255),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&account).Update("last_login_at", now).Error; err != nil {
		slog.Warn("failed to record last login", "actor", account.Email, "error", err)
	}

	identity := identityFor(&account, &session)
	signed, err := s.sign(identity, now)
	if err != nil {
		return nil, err
	}

	slog.Info("staff signed in", "actor", account.Email, "action", "login")
	return &Token{AccessToken: signed, ExpiresAt: session.ExpiresAt, Identity: identity}, nil
}

func (s *Service) sign(id Identity, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   id.AccountID.String(),
		"email": id.Email,
		"name":  id.DisplayName,
		"role":  id.Role,
		"jti":   id.SessionID.String(),
		"iat":   now.Unix(),
		"exp":   id.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a raw access token and checks its session is still live.
func (s *Service) Verify(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return s.IdentityFromClaims(ctx, claims)
}

// IdentityFromClaims resolves already-validated claims against the session
// table, so revoked or expired sessions are rejected.
func (s *Service) IdentityFromClaims(ctx context.Context, claims jwt.MapClaims) (*Identity, error) {
	jti, _ := claims["jti"].(string)
	sessionID, err := uuid.Parse(jti)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var session models.AuthSession
	err = s.db.WithContext(ctx).Preload("Account").
		Where("id = ? AND revoked = ? AND expires_at > ?", sessionID, false, s.now().UTC()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Account.ID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	if session.Account.Disabled {
		return nil, ErrAccountDisabled
	}

	id := identityFor(&session.Account, &session)
	return &id, nil
}

func (s *Service) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.AuthSession{}).
		Where("id = ?", sessionID).
		Update("revoked", true).Error
}

// RequestPasswordReset mails a reset link when the account exists. The
// result is the same whether or not it does.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	var account models.StaffAccount
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("password reset for unknown email", "action", "password_reset")
			return nil
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	raw, err := randomToken()
	if err != nil {
		return err
	}
	reset := models.PasswordReset{
		ID:        uuid.New(),
		AccountID: account.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().UTC().Add(s.cfg.PasswordResetTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link, err := resetLink(s.cfg.PasswordResetURL, raw)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, account.Email, link); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs the
// account out everywhere.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		err := tx.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", hashToken(token), now).
			First(&reset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&models.StaffAccount{}).Where("id = ?", reset.AccountID).
			Update("password", string(hash)).Error; err != nil {
			return err
		}
		if err := tx.Model(&reset).Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.AuthSession{}).Where("account_id = ?", reset.AccountID).
			Update("revoked", true).Error
	})
}

func identityFor(account *models.StaffAccount, session *models.AuthSession) Identity {
	return Identity{
		AccountID:   account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        account.Role,
		SessionID:   session.ID,
		ExpiresAt:   session.ExpiresAt,
	}
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid PASSWORD_RESET_URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func randomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
