package customer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/repository/store"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// CartMerger folds an anonymous session's cart into a user's cart.
type CartMerger interface {
	Merge(ctx context.Context, sessionToken, userID string) (*domain.Cart, error)
}

// Service handles customer signup/login flows.
type Service struct {
	store       store.Store
	tokens      *TokenManager
	merger      CartMerger
	logger      *zap.Logger
	passwordMin int
	cost        int
}

// New creates a Service. merger may be nil, in which case login never merges carts.
func New(st store.Store, tokens *TokenManager, merger CartMerger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       st,
		tokens:      tokens,
		merger:      merger,
		logger:      logger,
		passwordMin: 8,
		cost:        bcrypt.DefaultCost,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// AnonymousToken, when set, names the session cart to merge after login.
	AnonymousToken string `json:"anonymous_token,omitempty"`
}

type LoginResult struct {
	Customer    *domain.Customer `json:"customer"`
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Cart        *domain.Cart     `json:"cart,omitempty"`
}

// Signup registers a new customer account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	return s.create(ctx, in, domain.RoleCustomer)
}

// CreateStaff registers a staff account. It is used by the seed command.
func (s *Service) CreateStaff(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	return s.create(ctx, in, domain.RoleStaff)
}

func (s *Service) create(ctx context.Context, in SignupInput, role string) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	verr := &domain.ValidationError{}
	if email == "" {
		verr.Add("email", "required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "invalid email")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		verr.Add("password", err.Error())
	}
	if verr.HasErrors() {
		return nil, verr
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	var out *domain.Customer
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		out, err = tx.Customers().Create(ctx, domain.Customer{
			Email:        email,
			PasswordHash: string(hashed),
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			Role:         role,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer registered", zap.String("customer_id", out.ID), zap.String("role", out.Role))
	return out, nil
}

// Login validates credentials and issues an access token. With an anonymous token the
// session cart is merged into the customer's cart right away; a failed merge is logged
// and leaves the carts untouched for a later POST /cart/merge.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	password := strings.TrimSpace(in.Password)

	var c *domain.Customer
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		c, err = tx.Customers().GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(*c)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	res := &LoginResult{Customer: c, AccessToken: token, ExpiresAt: expiresAt}

	if anon := strings.TrimSpace(in.AnonymousToken); anon != "" && s.merger != nil {
		cart, err := s.merger.Merge(ctx, anon, c.ID)
		if err != nil {
			s.logger.Warn("login: cart merge failed", zap.String("customer_id", c.ID), zap.Error(err))
		} else {
			res.Cart = cart
		}
	}
	return res, nil
}

// Authenticate resolves an access token into the caller it belongs to.
func (s *Service) Authenticate(token string) (domain.Actor, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{Owner: domain.UserOwner(claims.UserID), Role: claims.Role}, nil
}

// Get returns the customer with id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	var out *domain.Customer
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Customers().GetByID(ctx, id)
		return err
	})
	return out, err
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
