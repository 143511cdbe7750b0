package customer

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"printshop-commerce/internal/domain"
)

const tokenIssuer = "printshop-commerce"

// Claims is what an access token asserts about its bearer.
type Claims struct {
	UserID string
	Role   string
}

type accessClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if strings.TrimSpace(secret) == "" {
		secret = "dev-change-me"
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for c and returns it with its expiry.
func (m *TokenManager) Issue(c domain.Customer) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := accessClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   c.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
		Role: c.Role,
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, expiry and issuer and returns the claims.
func (m *TokenManager) Parse(token string) (Claims, error) {
	claims := &accessClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	role := claims.Role
	if role != domain.RoleStaff {
		role = domain.RoleCustomer
	}
	return Claims{UserID: sub, Role: role}, nil
}
