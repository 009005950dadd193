package guard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/internal/auth"
	"examreg/pkg/httputil"
)

type MiddlewareSuite struct {
	suite.Suite
	tokens *auth.TokenProvider
	logger *slog.Logger
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.tokens = auth.NewTokenProvider("middleware-test-key", time.Hour)
	s.logger = slog.Default()
}

func (s *MiddlewareSuite) decode(rec *httptest.ResponseRecorder) httputil.Result {
	var res httputil.Result
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func (s *MiddlewareSuite) authenticated(token string, next http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	RequireAuth(s.tokens, s.logger)(next).ServeHTTP(rec, req)
	return rec
}

func (s *MiddlewareSuite) TestRequireAuth() {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		s.Fail("handler must not run without a valid token")
	})

	s.Run("rejects a request without a token", func() {
		rec := s.authenticated("", noop)

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("missing or invalid Authorization header", s.decode(rec).Message)
	})

	s.Run("rejects a header without the bearer prefix", func() {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "token-without-scheme")
		rec := httptest.NewRecorder()
		RequireAuth(s.tokens, s.logger)(noop).ServeHTTP(rec, req)

		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("rejects a garbage token", func() {
		rec := s.authenticated("not-a-jwt", noop)

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("invalid or expired token", s.decode(rec).Message)
	})

	s.Run("rejects an expired token", func() {
		expired := auth.NewTokenProvider("middleware-test-key", -time.Minute)
		token, err := expired.Generate(7, "13812345678", string(RoleUser))
		s.Require().NoError(err)

		rec := s.authenticated(token, noop)

		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("passes claims to the inner handler", func() {
		token, err := s.tokens.Generate(7, "13812345678", string(RoleUser))
		s.Require().NoError(err)

		var called bool
		rec := s.authenticated(token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			s.Equal(int64(7), UserID(r.Context()))
			s.Equal("13812345678", Username(r.Context()))
			s.Equal(RoleUser, RoleOf(r.Context()))
		}))

		s.True(called)
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *MiddlewareSuite) TestRequireRole() {
	serve := func(token string) *httptest.ResponseRecorder {
		var called bool
		handler := RequireAuth(s.tokens, s.logger)(
			RequireRole(RoleAdmin, s.logger)(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					called = true
					w.WriteHeader(http.StatusNoContent)
				})))
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			s.True(called)
		}
		return rec
	}

	s.Run("rejects a candidate on an admin route", func() {
		token, err := s.tokens.Generate(7, "13812345678", string(RoleUser))
		s.Require().NoError(err)

		rec := serve(token)

		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("insufficient permissions", s.decode(rec).Message)
	})

	s.Run("admits an administrator", func() {
		token, err := s.tokens.Generate(1, "admin", string(RoleAdmin))
		s.Require().NoError(err)

		s.Equal(http.StatusNoContent, serve(token).Code)
	})
}

func (s *MiddlewareSuite) TestContextAccessorsZeroValues() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	s.Zero(UserID(req.Context()))
	s.Empty(Username(req.Context()))
	s.Empty(RoleOf(req.Context()))
}
