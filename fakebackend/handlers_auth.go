package fakebackend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-partner-portal/internal/utils"
	"github.com/jrsteele09/go-partner-portal/users"
)

// LoginHandler exchanges credentials for an access/refresh pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"non_field_errors": []string{"Email and password are required."},
			})
			return
		}

		u, err := s.accounts.Authenticate(req.Email, req.Password)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, err.Error())
			return
		}

		access, err := s.accessTokens.Issue(u.ID)
		if err != nil {
			s.logger.Err(err).Msg("failed to issue access token")
			writeDetail(w, http.StatusInternalServerError, "Could not issue token")
			return
		}
		refresh, err := s.refreshTokens.Create(u.ID)
		if err != nil {
			s.logger.Err(err).Msg("failed to issue refresh token")
			writeDetail(w, http.StatusInternalServerError, "Could not issue token")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"access":  access,
			"refresh": utils.Value(refresh),
		})
	}
}

// RegisterHandler creates a user with a pending partner record.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg users.Registration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error")
			return
		}
		if err := reg.Validate(); err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}

		u := users.User{
			Email:     reg.Email,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
		}
		if company := strings.TrimSpace(reg.CompanyName); company != "" {
			u.Partner = &users.Partner{
				CompanyName: company,
				ContactName: reg.ContactName,
				Status:      "pending",
			}
		}

		created, err := s.accounts.Create(u, reg.Password)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"email": []string{err.Error()}, "detail": err.Error()})
			return
		}
		s.logger.Info().Int("user_id", created.ID).Msg("user registered")
		writeJSON(w, http.StatusCreated, created)
	}
}

// RefreshHandler mints a new access token. The refresh token is not rotated.
func (s *Server) RefreshHandler() http.HandlerFunc {
	type request struct {
		Refresh string `json:"refresh"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"refresh": []string{"This field is required."}})
			return
		}
		if s.failRefresh.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}

		rt, err := s.refreshTokens.Validate(req.Refresh)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}
		access, err := s.accessTokens.Issue(rt.UserID)
		if err != nil {
			s.logger.Err(err).Msg("failed to issue access token")
			writeDetail(w, http.StatusInternalServerError, "Could not issue token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": access})
	}
}

// MeHandler returns the authenticated user.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r))
	}
}
