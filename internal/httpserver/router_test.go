package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	customersvc "printshop-commerce/internal/service/customer"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.NewValidationError("quantity", "must be at least 1"), http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("add line: %w", domain.NewValidationError("roll_id", "unknown roll")), http.StatusUnprocessableEntity},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: line belongs to another cart", domain.ErrConflict), http.StatusConflict},
		{"duplicate", domain.ErrAlreadyExists, http.StatusConflict},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"credentials", customersvc.ErrInvalidCredentials, http.StatusUnauthorized},
		{"lock timeout", fmt.Errorf("allocate: %w", domain.ErrConcurrency), http.StatusServiceUnavailable},
		{"integrity", fmt.Errorf("product p-1: %w", domain.ErrIntegrity), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			writeError(c, zap.NewNop(), tc.err)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestWriteError_HidesInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/checkout", nil)
	writeError(c, zap.NewNop(), fmt.Errorf("roll r-9 vanished: %w", domain.ErrIntegrity))

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == "" || body.Errors != nil {
		t.Fatalf("unexpected body %+v", body)
	}
	for _, leak := range []string{"r-9", "vanished"} {
		if strings.Contains(body.Error, leak) {
			t.Fatalf("response leaks %q: %s", leak, body.Error)
		}
	}
}

func TestBuildRouter_MissingDeps(t *testing.T) {
	if _, err := buildRouter(zap.NewNop(), Deps{}, Options{}); err == nil {
		t.Fatalf("expected an error for missing services")
	}
}

func TestOwnerThrottle_RefillsAndSweeps(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	th := newOwnerThrottle(1)
	th.now = func() time.Time { return now }

	if !th.allow("a") || th.allow("a") {
		t.Fatalf("expected one attempt per minute")
	}
	if !th.allow("b") {
		t.Fatalf("owners must not share a bucket")
	}
	now = now.Add(time.Minute)
	if !th.allow("a") {
		t.Fatalf("bucket should refill after a minute")
	}
	now = now.Add(2 * limiterIdle)
	th.allow("c")
	if _, ok := th.limiters["b"]; ok {
		t.Fatalf("idle limiter should have been swept")
	}
}
