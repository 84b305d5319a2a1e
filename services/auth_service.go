package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/princinho/sahoaccounts/cache"
	"github.com/princinho/sahoaccounts/models"
	"github.com/princinho/sahoaccounts/tokens"
)

const activationMailSubject = "Activate your account"

// AuthService drives the session lifecycle: registration with email
// activation, credential and social login, token rotation and logout.
// All collaborators are injected; the service holds no mutable state.
type AuthService struct {
	store  UserStore
	cache  cache.SessionCache
	codec  *tokens.Codec
	mailer Mailer
}

func NewAuthService(store UserStore, sessions cache.SessionCache, codec *tokens.Codec, mailer Mailer) *AuthService {
	return &AuthService{
		store:  store,
		cache:  sessions,
		codec:  codec,
		mailer: mailer,
	}
}

// RegisterResult carries the activation token back to the client. The
// one-time code travels only by mail.
type RegisterResult struct {
	ActivationToken string
	Email           string
}

// Session is a freshly minted token pair plus the user it belongs to.
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// Register checks the email is unused, issues an activation token and
// mails the embedded code. No user record is created yet; if the mail
// fails the token is simply never used and expires on its own.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	email = normalizeEmail(email)

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	candidate := tokens.Candidate{Name: name, Email: email, Password: password}
	token, code, err := s.codec.IssueActivationToken(candidate)
	if err != nil {
		return nil, fmt.Errorf("issue activation token: %w", err)
	}

	data := map[string]any{
		"Name": name,
		"Code": code,
	}
	if err := s.mailer.Send(ctx, email, activationMailSubject, "activation_email", data); err != nil {
		log.Printf("activation mail to %s failed: %v", email, err)
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	return &RegisterResult{ActivationToken: token, Email: email}, nil
}

// ConfirmActivation creates the account once the token verifies and the
// submitted code matches the embedded one. Two concurrent confirmations
// for the same email may both pass the lookup; the store's unique index
// fails the second write and that surfaces as ErrDuplicateEmail.
func (s *AuthService) ConfirmActivation(ctx context.Context, activationToken, code string) (*models.User, error) {
	candidate, embedded, err := s.codec.VerifyActivationToken(activationToken)
	if err != nil {
		return nil, err
	}
	if code != embedded {
		return nil, ErrInvalidCode
	}

	if _, err := s.store.FindByEmail(ctx, candidate.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	user, err := s.store.Create(ctx, CreateUserParams{
		Name:     candidate.Name,
		Email:    candidate.Email,
		Password: candidate.Password,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and opens a session. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.store.ComparePassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// SocialAuth signs a user in on the word of an upstream identity
// provider, creating the account on first sight with no activation.
func (s *AuthService) SocialAuth(ctx context.Context, email, name, avatarURL string) (*Session, error) {
	email = normalizeEmail(email)

	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		user, err = s.store.Create(ctx, CreateUserParams{
			Name:      name,
			Email:     email,
			AvatarURL: avatarURL,
		})
	}
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

// Logout drops the session entry. Deleting an absent entry is fine, so
// repeated logouts succeed.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if _, err := s.cache.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The
// session entry must still exist; its TTL is set at login and is not
// extended here, so a session ends on its original schedule no matter
// how often tokens rotate.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	data, err := s.cache.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}

	access, err := s.codec.IssueAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &Session{User: &user, AccessToken: access, RefreshToken: refresh}, nil
}

// CurrentUser resolves an already-authenticated user id from the
// session cache. The cache is authoritative past the access-token gate;
// a miss means the session is gone, not that the primary store should
// be consulted.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	data, err := s.cache.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &user, nil
}

// openSession mints both tokens and writes the session entry. The entry
// lives exactly as long as the refresh token.
func (s *AuthService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	userID := user.ID.Hex()

	access, err := s.codec.IssueAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	record, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode session record: %w", err)
	}
	if err := s.cache.Put(ctx, userID, record, s.codec.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}

	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshSessionRecord rewrites the cached copy of a user after a
// profile change so authenticated reads see the update immediately.
func (s *AuthService) RefreshSessionRecord(ctx context.Context, user *models.User) error {
	record, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	return s.cache.Put(ctx, user.ID.Hex(), record, s.codec.RefreshTTL())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
