// Package fakebackend is an in-process partner portal backend. It speaks the
// same auth contract as the real service (login, register, token refresh, me)
// and keeps resource collections in memory. It backs the client tests and the
// portal devserver command.
package fakebackend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-partner-portal/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessTokenTTL  = 5 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
	refreshTokenLength     = 32
)

type Server struct {
	router *mux.Router
	logger zerolog.Logger
	now    func() time.Time

	secret       string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	passwordCost int

	accounts      *accountRepo
	accessTokens  *accessTokenIssuer
	refreshTokens *refreshManager
	records       *recordStore

	failRefresh atomic.Bool
	hits        map[string]int
	hitsLock    sync.Mutex
	requests    *prometheus.CounterVec
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithSecret sets the HMAC secret access tokens are signed with.
func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func WithRefreshTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.refreshTTL = ttl
	}
}

// WithPasswordCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(s *Server) {
		s.passwordCost = cost
	}
}

func New(options ...Option) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		logger:       log.Logger,
		now:          time.Now,
		secret:       uuid.NewString(),
		accessTTL:    defaultAccessTokenTTL,
		refreshTTL:   defaultRefreshTokenTTL,
		passwordCost: bcrypt.DefaultCost,
		hits:         make(map[string]int),
		requests:     newRequestCounter(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "fakebackend").Logger()

	s.accounts = newAccountRepo(s.passwordCost)
	s.accessTokens = newAccessTokenIssuer(s.secret, s.accessTTL, s.now)
	s.refreshTokens = &refreshManager{
		repo:   newRefreshRepo(),
		length: refreshTokenLength,
		ttl:    s.refreshTTL,
		now:    s.now,
	}
	s.records = newRecordStore(s.now)

	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hitsLock.Lock()
	s.hits[r.URL.Path]++
	s.hitsLock.Unlock()

	route := s.routeTemplate(r)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := s.now()
	s.router.ServeHTTP(rec, r)
	s.countRequest(route, r.Method, rec.status)
	s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("status", rec.status).
		Dur("took", s.now().Sub(start)).Msg("handled")
}

// SeedUser registers u with password and returns the stored user.
func (s *Server) SeedUser(u users.User, password string) (users.User, error) {
	return s.accounts.Create(u, password)
}

// SetPartnerStatus changes the status of the partner attached to a user.
func (s *Server) SetPartnerStatus(userID int, status string) (users.User, error) {
	return s.accounts.Update(userID, func(u *users.User) {
		if u.Partner == nil {
			u.Partner = &users.Partner{ID: u.ID}
		}
		u.Partner.Status = status
	})
}

// RevokeAccessTokens makes every access token issued so far fail with 401.
func (s *Server) RevokeAccessTokens() {
	s.accessTokens.RevokeAll()
}

// FailRefresh makes the refresh endpoint reject every token while enabled.
func (s *Server) FailRefresh(fail bool) {
	s.failRefresh.Store(fail)
}

// Hits returns how many requests were made to path.
func (s *Server) Hits(path string) int {
	s.hitsLock.Lock()
	defer s.hitsLock.Unlock()
	return s.hits[path]
}

// IssueAccessToken mints a valid access token for userID.
func (s *Server) IssueAccessToken(userID int) (string, error) {
	return s.accessTokens.Issue(userID)
}

type userContextKey struct{}

// authenticated rejects requests without a valid bearer access token and puts
// the caller into the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		userID, err := s.accessTokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.logger.Debug().Err(err).Msg("rejected access token")
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		u, err := s.accounts.Get(userID)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, u)))
	}
}

func currentUser(r *http.Request) users.User {
	u, _ := r.Context().Value(userContextKey{}).(users.User)
	return u
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
