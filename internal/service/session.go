package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/kvstore"

	"go.uber.org/zap"
)

// CartDropper discards a session's cart
type CartDropper interface {
	Drop(ctx context.Context, sessionID int64)
}

// SessionStore keeps the logged-in user and their token in the session's
// blob namespace. A token is only accepted while it is the stored one, so
// logging out revokes it.
type SessionStore struct {
	blobs  kvstore.Store
	users  UserService
	carts  CartDropper
	logger *zap.Logger
}

// NewSessionStore creates a SessionStore. carts may be nil.
func NewSessionStore(blobs kvstore.Store, users UserService, carts CartDropper, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{blobs: blobs, users: users, carts: carts, logger: logger}
}

func (s *SessionStore) session(userID int64) kvstore.Store {
	return kvstore.Namespaced(s.blobs, kvstore.SessionPrefix(userID))
}

// Login authenticates the user and opens their session
func (s *SessionStore) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	token, user, err := s.users.Login(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	session := s.session(user.ID)
	if err := session.Set(ctx, kvstore.KeyAuthToken, []byte(token)); err != nil {
		return "", nil, fmt.Errorf("failed to store session token: %w", err)
	}
	s.Refresh(ctx, user)

	s.logger.Info("Session opened", zap.Int64("user_id", user.ID))
	return token, user, nil
}

// Refresh rewrites the cached user record. Failures are only logged.
func (s *SessionStore) Refresh(ctx context.Context, user *domain.User) {
	if err := kvstore.SetJSON(ctx, s.session(user.ID), kvstore.KeyUserData, user); err != nil {
		s.logger.Warn("Failed to cache user data", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

// Authenticate validates token and checks it is the session's current token.
// It returns the user ID the token belongs to.
func (s *SessionStore) Authenticate(ctx context.Context, token string) (int64, error) {
	claims, err := s.users.ValidateToken(token)
	if err != nil {
		return 0, err
	}

	stored, err := s.session(claims.UserID).Get(ctx, kvstore.KeyAuthToken)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return 0, domain.ErrInvalidToken
		}
		return 0, fmt.Errorf("failed to read session token: %w", err)
	}
	if string(stored) != token {
		return 0, domain.ErrInvalidToken
	}

	return claims.UserID, nil
}

// Current returns the cached user of an open session. An expired token
// closes the session.
func (s *SessionStore) Current(ctx context.Context, userID int64) (*domain.User, error) {
	session := s.session(userID)

	token, err := session.Get(ctx, kvstore.KeyAuthToken)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to read session token: %w", err)
	}

	if _, err := s.users.ValidateToken(string(token)); err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			s.clear(ctx, userID)
		}
		return nil, err
	}

	var user domain.User
	if err := kvstore.GetJSON(ctx, session, kvstore.KeyUserData, &user); err != nil {
		s.logger.Debug("Session user cache miss", zap.Int64("user_id", userID), zap.Error(err))
		fresh, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.Refresh(ctx, fresh)
		return fresh, nil
	}
	return &user, nil
}

// Logout closes the session and drops its cart
func (s *SessionStore) Logout(ctx context.Context, userID int64) {
	s.clear(ctx, userID)
	if s.carts != nil {
		s.carts.Drop(ctx, userID)
	}
	s.logger.Info("Session closed", zap.Int64("user_id", userID))
}

func (s *SessionStore) clear(ctx context.Context, userID int64) {
	session := s.session(userID)
	for _, key := range []string{kvstore.KeyAuthToken, kvstore.KeyUserData} {
		if err := session.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to clear session key", zap.String("key", key), zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}
