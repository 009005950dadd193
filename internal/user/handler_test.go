package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"examreg/internal/auth"
	"examreg/internal/guard"
	"examreg/pkg/httputil"
)

type HandlerSuite struct {
	suite.Suite

	sessions *guard.MemoryStore
	router   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.Default()
	tokens := auth.NewTokenProvider("handler-test-key", time.Hour)
	service := NewService(NewMemoryStore(), tokens, logger)

	_, err := service.Register(context.Background(), &RegisterRequest{
		Username: "candidate", Password: "secret123", RealName: "Zhang San",
	})
	s.Require().NoError(err)

	s.sessions = guard.NewMemoryStore()
	handler := NewHandler(service, guard.New(s.sessions, service, service, logger), logger)

	r := chi.NewRouter()
	handler.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuth(tokens, logger))
		handler.RegisterProtected(r)
	})
	s.router = r
}

func (s *HandlerSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestLoginPersistsSession() {
	rec := s.do(http.MethodPost, "/users/login", "",
		`{"username": "candidate", "password": "secret123"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var res httputil.Result
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&res))
	data, ok := res.Data.(map[string]any)
	s.Require().True(ok)
	token, _ := data["token"].(string)
	s.NotEmpty(token)

	session, err := s.sessions.Load(context.Background(), "candidate")
	s.Require().NoError(err)
	s.Require().NotNil(session)
	s.Equal(token, session.Credential)
	s.Equal(guard.RoleUser, session.Identity.Role)
}

func (s *HandlerSuite) TestLoginFailureStoresNothing() {
	rec := s.do(http.MethodPost, "/users/login", "",
		`{"username": "candidate", "password": "wrong"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	session, err := s.sessions.Load(context.Background(), "candidate")
	s.Require().NoError(err)
	s.Nil(session)
}

func (s *HandlerSuite) TestLogoutClearsSession() {
	rec := s.do(http.MethodPost, "/users/login", "",
		`{"username": "candidate", "password": "secret123"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var res httputil.Result
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&res))
	token := res.Data.(map[string]any)["token"].(string)

	rec = s.do(http.MethodPost, "/users/logout", token, "")
	s.Equal(http.StatusOK, rec.Code)

	session, err := s.sessions.Load(context.Background(), "candidate")
	s.Require().NoError(err)
	s.Nil(session)

	// Logging out twice is harmless.
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/users/logout", token, "").Code)
}
