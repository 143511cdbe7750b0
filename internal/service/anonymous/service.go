// Package anonymous issues the opaque session tokens that own guest carts.
package anonymous

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// SessionStore remembers which session tokens are live.
type SessionStore interface {
	Save(ctx context.Context, token string, ttl time.Duration) error
	Exists(ctx context.Context, token string) (bool, error)
	Ping(ctx context.Context) error
}

type Session struct {
	Token     string    `json:"anonymous_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	sessions SessionStore
	ttl      time.Duration
	logger   *zap.Logger
}

func New(sessions SessionStore, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sessions: sessions, ttl: ttl, logger: logger}
}

// Issue starts a new anonymous session.
func (s *Service) Issue(ctx context.Context) (Session, error) {
	token := uuid.NewString()
	if err := s.sessions.Save(ctx, token, s.ttl); err != nil {
		s.logger.Error("anonymous: save session", zap.Error(err))
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: time.Now().UTC().Add(s.ttl)}, nil
}

// Owner resolves a live session token into the cart owner it stands for.
func (s *Service) Owner(ctx context.Context, token string) (domain.CartOwner, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.CartOwner{}, ErrInvalidToken
	}
	ok, err := s.sessions.Exists(ctx, token)
	if err != nil {
		return domain.CartOwner{}, err
	}
	if !ok {
		return domain.CartOwner{}, ErrInvalidToken
	}
	return domain.AnonymousOwner(token), nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
