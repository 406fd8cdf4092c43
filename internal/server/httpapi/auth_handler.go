package httpapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/avolkov/paperstand/internal/common"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	user, err := s.users.Signup(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	// A fresh account logs straight in.
	_, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	ok(w, http.StatusCreated, map[string]any{
		"user":         user.Sanitized(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	user, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	ok(w, http.StatusOK, map[string]any{
		"user":         user.Sanitized(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	user, access, expiresIn, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	ok(w, http.StatusOK, map[string]any{
		"user":        user.Sanitized(),
		"accessToken": access,
		"expiresIn":   expiresIn,
	})
}

// handleLogout always succeeds. Tokens are self-contained and not tracked
// server-side, so logout is the client discarding its copies; failing the
// request would only strand a user who wants to leave.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, nil)
}

// handleGoogleCallback finishes the OAuth code flow and hands the session to
// the frontend via a redirect. Tokens travel in the redirect query string.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		s.redirectFrontend(w, r, "/auth/error", url.Values{"reason": {errParam}})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		fail(r.Context(), w, s.log, common.ErrValidation)
		return
	}

	profile, err := s.google.ExchangeCode(r.Context(), code)
	if err != nil {
		s.log.Warn(r.Context(), "oauth code exchange failed", "error", err)
		s.redirectFrontend(w, r, "/auth/error", url.Values{"reason": {"exchange_failed"}})
		return
	}

	user, pair, err := s.users.SocialSignIn(r.Context(), profile)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	s.redirectFrontend(w, r, "/auth/callback", url.Values{
		"accessToken":  {pair.AccessToken},
		"refreshToken": {pair.RefreshToken},
		"expiresIn":    {strconv.FormatInt(pair.ExpiresIn, 10)},
		"userId":       {user.ID},
	})
}

func (s *Server) redirectFrontend(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	target := s.cfg.FrontendBaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type changeUsernameRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (s *Server) handleChangeUsername(w http.ResponseWriter, r *http.Request) {
	subjectID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	var req changeUsernameRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}
	if req.UserID == "" {
		req.UserID = subjectID
	}

	user, err := s.users.ChangeUsername(r.Context(), subjectID, req.UserID, req.Username)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"user": user.Sanitized()})
}

type changePasswordRequest struct {
	UserID          string `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	subjectID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}
	if req.UserID == "" {
		req.UserID = subjectID
	}

	user, err := s.users.ChangePassword(r.Context(), subjectID, req.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"user": user.Sanitized()})
}

type changeLanguageRequest struct {
	UserID   string `json:"userId"`
	Language int    `json:"language"`
}

func (s *Server) handleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	subjectID, err := UserIDFromContext(r.Context())
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}

	var req changeLanguageRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}
	if req.UserID == "" {
		req.UserID = subjectID
	}

	user, err := s.users.ChangeLanguage(r.Context(), subjectID, req.UserID, req.Language)
	if err != nil {
		fail(r.Context(), w, s.log, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"user": user.Sanitized()})
}
