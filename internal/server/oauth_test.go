package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tunemerge/tunemerge/internal/models"
)

type fakeAuthorizer struct {
	calls []string
	err   error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, userID, provider, code string) (*models.Credential, error) {
	f.calls = append(f.calls, code)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Credential{
		UserID:      userID,
		Provider:    provider,
		AccessToken: "token-for-" + code,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func TestOAuthHandler(t *testing.T) {
	t.Run("successful callback authorizes and reports result", func(t *testing.T) {
		authorizer := &fakeAuthorizer{}
		handler := NewOAuthHandler(authorizer, "user-1", "spotify", "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=auth-code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if len(authorizer.calls) != 1 || authorizer.calls[0] != "auth-code" {
			t.Errorf("expected authorize call with auth-code, got %v", authorizer.calls)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Credential == nil || result.Credential.Provider != "spotify" {
			t.Errorf("unexpected credential %+v", result.Credential)
		}
	})

	t.Run("state mismatch is rejected", func(t *testing.T) {
		authorizer := &fakeAuthorizer{}
		handler := NewOAuthHandler(authorizer, "user-1", "spotify", "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=auth-code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(authorizer.calls) != 0 {
			t.Error("expected no authorize call for forged state")
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected error result for forged state")
		}
	})

	t.Run("provider error is surfaced", func(t *testing.T) {
		handler := NewOAuthHandler(nil, "user-1", "spotify", "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&error=access_denied&error_description=user+denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected error result when provider denies authorization")
		}
	})

	t.Run("exchange failure returns 500", func(t *testing.T) {
		authorizer := &fakeAuthorizer{err: fmt.Errorf("bad code")}
		handler := NewOAuthHandler(authorizer, "user-1", "spotify", "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=expired", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected error result for failed exchange")
		}
	})

	t.Run("second callback is rejected", func(t *testing.T) {
		authorizer := &fakeAuthorizer{}
		handler := NewOAuthHandler(authorizer, "user-1", "spotify", "state123")

		first := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=auth-code", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=replayed", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replayed callback, got %d", rec.Code)
		}
		if len(authorizer.calls) != 1 {
			t.Errorf("expected a single authorize call, got %d", len(authorizer.calls))
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for wrong method, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		router := NewBasicRouter()
		var order []string

		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, "first")
				next.ServeHTTP(w, r)
			})
		})
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, "second")
				next.ServeHTTP(w, r)
			})
		})

		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "handler" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})
}
