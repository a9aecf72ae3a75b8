package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/todoshare/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the refresh token is unknown or already used.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token outlived its TTL.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// SessionStore persists refresh sessions keyed by the SHA-256 digest of the
// refresh token; raw tokens are never stored.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	// Consume atomically loads and removes a session, so a refresh token can
	// be exchanged at most once.
	Consume(ctx context.Context, tokenHash string) (Session, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// Session is a refresh token issued to a user.
type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

// Manager issues JWT access tokens and opaque single-use refresh tokens.
type Manager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration

	signer *TokenSigner
	store  SessionStore
	now    func() time.Time
}

// NewManager constructs a Manager that issues access and refresh tokens with the provided TTLs.
func NewManager(signer *TokenSigner, accessTTL, refreshTTL time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if signer == nil {
		panic("auth: token signer must not be nil")
	}
	return &Manager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		signer:     signer,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock used for refresh expiry.
func (m *Manager) WithNowFunc(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue creates a new token pair for userID.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	accessToken, accessExpires, err := m.signer.Sign(userID, m.accessTTL)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshExpires := m.now().Add(m.refreshTTL)

	session := Session{TokenHash: digest(refreshToken), UserID: userID, ExpiresAt: refreshExpires}
	if err := m.store.Save(ctx, session); err != nil {
		return models.SessionTokens{}, fmt.Errorf("save session: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// spent even when it turns out to be expired.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Consume(ctx, digest(refreshToken))
	if err != nil {
		return models.SessionTokens{}, err
	}
	if m.now().After(session.ExpiresAt) {
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	return m.Issue(ctx, session.UserID)
}

// Verify checks an access token and returns the caller identity.
func (m *Manager) Verify(_ context.Context, accessToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, ErrInvalidToken
	}
	return m.signer.Verify(accessToken)
}

// RevokeUser removes every refresh token issued to userID. Access tokens
// already handed out stay valid until they expire.
func (m *Manager) RevokeUser(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user id must be provided")
	}
	return m.store.DeleteForUser(ctx, userID)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func digest(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return hex.EncodeToString(sum[:])
}
