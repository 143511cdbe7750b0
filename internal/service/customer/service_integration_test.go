package customer

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"printshop-commerce/internal/repository/pgtest"
	"printshop-commerce/internal/repository/store"
)

func TestSignupAndLogin_Integration(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Pool(ctx, t)

	logger := zaptest.NewLogger(t)
	svc := New(store.NewPostgres(pool, logger), NewTokenManager("integration", time.Hour), nil, logger)

	password := "Abcdefg1"
	cust, err := svc.Signup(ctx, SignupInput{
		Email:     "integration@example.com",
		Password:  password,
		FirstName: "Int",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if cust == nil || cust.ID == "" {
		t.Fatalf("expected created customer, got %+v", cust)
	}

	res, err := svc.Login(ctx, LoginInput{Email: "INTEGRATION@example.com", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatalf("expected access token")
	}

	got, err := svc.Get(ctx, cust.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "integration@example.com" || got.PasswordHash == "" {
		t.Fatalf("unexpected stored customer %+v", got)
	}
}
