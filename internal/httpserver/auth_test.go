package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"printshop-commerce/internal/domain"
	anonymoussvc "printshop-commerce/internal/service/anonymous"
	customersvc "printshop-commerce/internal/service/customer"
)

type stubAuthenticator struct {
	actor domain.Actor
	err   error
}

func (s *stubAuthenticator) Signup(context.Context, customersvc.SignupInput) (*domain.Customer, error) {
	return nil, nil
}

func (s *stubAuthenticator) Login(context.Context, customersvc.LoginInput) (*customersvc.LoginResult, error) {
	return nil, nil
}

func (s *stubAuthenticator) Authenticate(string) (domain.Actor, error) {
	return s.actor, s.err
}

func (s *stubAuthenticator) Get(context.Context, string) (*domain.Customer, error) {
	return nil, domain.ErrNotFound
}

type stubSessions struct {
	known map[string]bool
}

func (s *stubSessions) Issue(context.Context) (anonymoussvc.Session, error) {
	return anonymoussvc.Session{Token: "new"}, nil
}

func (s *stubSessions) Owner(_ context.Context, token string) (domain.CartOwner, error) {
	if !s.known[token] {
		return domain.CartOwner{}, anonymoussvc.ErrInvalidToken
	}
	return domain.AnonymousOwner(token), nil
}

func (s *stubSessions) Ping(context.Context) error { return nil }

func actorRouter(auth *stubAuthenticator, sessions *stubSessions, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(actorMiddleware(auth, sessions))
	router.GET("/whoami", guard, func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.String(http.StatusOK, "nobody")
			return
		}
		c.String(http.StatusOK, actor.Owner.String()+"/"+actor.Role)
	})
	return router
}

func serve(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func passThrough(c *gin.Context) { c.Next() }

func TestActorMiddleware_Bearer(t *testing.T) {
	auth := &stubAuthenticator{actor: domain.Actor{Owner: domain.UserOwner("u-1"), Role: domain.RoleStaff}}
	router := actorRouter(auth, &stubSessions{}, passThrough)

	rec := serve(router, map[string]string{"Authorization": "bearer tok"})
	if rec.Code != http.StatusOK || rec.Body.String() != "user:u-1/staff" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestActorMiddleware_BearerWinsOverSession(t *testing.T) {
	auth := &stubAuthenticator{actor: domain.Actor{Owner: domain.UserOwner("u-1"), Role: domain.RoleCustomer}}
	router := actorRouter(auth, &stubSessions{known: map[string]bool{"s-1": true}}, passThrough)

	rec := serve(router, map[string]string{"Authorization": "Bearer tok", anonymousTokenHeader: "s-1"})
	if rec.Body.String() != "user:u-1/customer" {
		t.Fatalf("expected the bearer identity, got %q", rec.Body.String())
	}
}

func TestActorMiddleware_InvalidBearer(t *testing.T) {
	auth := &stubAuthenticator{err: customersvc.ErrInvalidToken}
	router := actorRouter(auth, &stubSessions{}, passThrough)

	rec := serve(router, map[string]string{"Authorization": "Bearer tok"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestActorMiddleware_Session(t *testing.T) {
	router := actorRouter(&stubAuthenticator{}, &stubSessions{known: map[string]bool{"s-1": true}}, passThrough)

	rec := serve(router, map[string]string{anonymousTokenHeader: "s-1"})
	if rec.Body.String() != "anonymous/customer" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	rec = serve(router, map[string]string{anonymousTokenHeader: "s-2"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an unknown session, got %d", rec.Code)
	}
}

func TestRequireGuards(t *testing.T) {
	sessions := &stubSessions{known: map[string]bool{"s-1": true}}

	rec := serve(actorRouter(&stubAuthenticator{}, sessions, requireActor()), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("requireActor: expected 401 without credentials, got %d", rec.Code)
	}
	rec = serve(actorRouter(&stubAuthenticator{}, sessions, requireActor()), map[string]string{anonymousTokenHeader: "s-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("requireActor: expected 200 for a session, got %d", rec.Code)
	}
	rec = serve(actorRouter(&stubAuthenticator{}, sessions, requireUser()), map[string]string{anonymousTokenHeader: "s-1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("requireUser: expected 401 for a session, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"BEARER  abc": "abc",
		"Bearer ":     "",
		"Basic abc":   "",
		"":            "",
	}
	for header, want := range cases {
		got, _ := bearerToken(header)
		if got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
