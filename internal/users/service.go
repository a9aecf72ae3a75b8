package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/db"
	"github.com/todoshare/backend/internal/logging"
	"github.com/todoshare/backend/internal/models"
)

const minPasswordLength = 8

// Store captures the persistence operations required for user accounts.
type Store interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

// Relations loads the relationship sets shown alongside a user.
type Relations interface {
	Sent(ctx context.Context, userID string) ([]models.FriendEntry, error)
	Received(ctx context.Context, userID string) ([]models.FriendEntry, error)
	Friends(ctx context.Context, userID string) ([]models.FriendEntry, error)
}

// Sessions issues, refreshes and revokes authentication tokens.
type Sessions interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	RevokeUser(ctx context.Context, userID string) error
}

// SignUpInput carries the fields of a new account.
type SignUpInput struct {
	FirstName    string
	LastName     string
	CountryName  string
	MobileNumber string
	Email        string
	Password     string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	models.SessionTokens
	UserDetails models.UserDetails `json:"userDetails"`
}

// Service implements account management.
type Service struct {
	Users     Store
	Relations Relations
	Sessions  Sessions
	NowFunc   func() time.Time
}

// SignUp registers a new account.
func (s Service) SignUp(ctx context.Context, in SignUpInput) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "users.signup")
	defer span.End()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CountryName = strings.TrimSpace(in.CountryName)
	in.MobileNumber = strings.TrimSpace(in.MobileNumber)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.FirstName == "" || in.Email == "" || in.Password == "" {
		return models.User{}, apperr.Validation("firstName, email and password are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return models.User{}, apperr.Validation("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, apperr.Validation("password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperr.Internal("failed to secure password", err)
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CountryName:  in.CountryName,
		MobileNumber: in.MobileNumber,
		Email:        in.Email,
		Password:     string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return models.User{}, apperr.Conflict("account already exists")
		}
		return models.User{}, apperr.Internal("failed to create account", err)
	}

	logging.FromContext(ctx).Info("user signed up", "userId", user.ID)
	return user, nil
}

// Login verifies credentials and issues a session.
func (s Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	ctx, span := logging.StartSpan(ctx, "users.login")
	defer span.End()

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginResult{}, apperr.Validation("email and password are required")
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return LoginResult{}, apperr.Unauthorized("invalid credentials")
		}
		return LoginResult{}, apperr.Internal("failed to load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logging.FromContext(ctx).Warn("login password mismatch", "userId", user.ID)
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	}

	tokens, err := s.Sessions.Issue(ctx, user.ID)
	if err != nil {
		return LoginResult{}, apperr.Internal("failed to create session", err)
	}

	details, err := s.details(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{SessionTokens: tokens, UserDetails: details}, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (s Service) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return models.SessionTokens{}, apperr.Validation("refreshToken is required")
	}

	tokens, err := s.Sessions.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrRefreshTokenExpired) {
			return models.SessionTokens{}, apperr.Unauthorized("unable to refresh session")
		}
		return models.SessionTokens{}, apperr.Internal("unable to refresh session", err)
	}
	return tokens, nil
}

// Logout revokes every refresh session of userID.
func (s Service) Logout(ctx context.Context, caller auth.Identity, userID string) error {
	if !caller.Is(strings.TrimSpace(userID)) {
		return apperr.Forbidden("cannot log out another user")
	}
	if err := s.Sessions.RevokeUser(ctx, caller.UserID); err != nil {
		return apperr.Internal("failed to log out", err)
	}
	return nil
}

// Delete removes the caller's account together with its relationships and lists.
func (s Service) Delete(ctx context.Context, caller auth.Identity, userID string) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "users.delete")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if !caller.Is(userID) {
		return models.User{}, apperr.Forbidden("cannot delete another user")
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, apperr.Internal("failed to load user", err)
	}

	if err := s.Users.Delete(ctx, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, apperr.Internal("failed to delete user", err)
	}

	logging.FromContext(ctx).Info("user deleted", "userId", userID)
	return user, nil
}

// All returns every user with relationship sets.
func (s Service) All(ctx context.Context) ([]models.UserDetails, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}

	out := make([]models.UserDetails, 0, len(users))
	for _, user := range users {
		details, err := s.details(ctx, user)
		if err != nil {
			return nil, err
		}
		out = append(out, details)
	}
	return out, nil
}

// Details returns a single user with relationship sets.
func (s Service) Details(ctx context.Context, caller auth.Identity, userID string) (models.UserDetails, error) {
	if caller.IsZero() {
		return models.UserDetails{}, apperr.Unauthorized("authentication required")
	}

	user, err := s.Users.FindByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.UserDetails{}, apperr.NotFound("user not found")
		}
		return models.UserDetails{}, apperr.Internal("failed to load user", err)
	}
	return s.details(ctx, user)
}

func (s Service) details(ctx context.Context, user models.User) (models.UserDetails, error) {
	details := models.UserDetails{User: user}
	if s.Relations == nil {
		return details, nil
	}

	var err error
	if details.Friends, err = s.Relations.Friends(ctx, user.ID); err != nil {
		return models.UserDetails{}, apperr.Internal("failed to load friends", err)
	}
	if details.FriendRequestSent, err = s.Relations.Sent(ctx, user.ID); err != nil {
		return models.UserDetails{}, apperr.Internal("failed to load sent requests", err)
	}
	if details.FriendRequestReceived, err = s.Relations.Received(ctx, user.ID); err != nil {
		return models.UserDetails{}, apperr.Internal("failed to load received requests", err)
	}

	details.Friends = nonNil(details.Friends)
	details.FriendRequestSent = nonNil(details.FriendRequestSent)
	details.FriendRequestReceived = nonNil(details.FriendRequestReceived)
	return details, nil
}

func nonNil(entries []models.FriendEntry) []models.FriendEntry {
	if entries == nil {
		return []models.FriendEntry{}
	}
	return entries
}

func (s Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
