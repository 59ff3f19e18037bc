package api

import (
	"encoding/json"
	"net/http"
	"penbox/internal/apperror"
	"penbox/internal/auth"
	"penbox/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"hunter22"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResponse struct {
	User  *models.User `json:"user"`
	Token TokenPair    `json:"token"`
}

// issueTokens mints a fresh access/refresh pair and stores the refresh token
// as the user's single active one.
func (s *Server) issueTokens(r *http.Request, user *models.User) (TokenPair, error) {
	accessToken, err := auth.GenerateAccessToken(user, s.config.JWT.AccessSecret, s.config.JWT.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := auth.GenerateRefreshToken(user.ID, s.config.JWT.RefreshSecret, s.config.JWT.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.SetRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func setAuthCookies(w http.ResponseWriter, pair TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// @Summary      Log a user in
// @Description  Verifies credentials, sets accessToken/refreshToken cookies and returns the user with a token pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body      LoginRequest  true  "Login credentials"
// @Success      200           {object}  LoginResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      500           {object}  ErrorResponse
// @Router       /users/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperror.Validation("email and password are required"))
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	// Federated accounts have no password hash and cannot log in this way.
	if user == nil || user.PasswordHash == nil || !auth.CheckPasswordHash(req.Password, *user.PasswordHash) {
		writeError(w, apperror.Unauthorized("invalid email or password"))
		return
	}

	pair, err := s.issueTokens(r, user)
	if err != nil {
		writeError(w, err)
		return
	}

	setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, LoginResponse{User: user, Token: pair})
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// incomingRefreshToken reads the refresh token from the cookie, falling back
// to the request body.
func incomingRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie("refreshToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// @Summary      Rotate tokens
// @Description  Exchanges a valid refresh token for a fresh access/refresh pair. The stored token is replaced, so any previously issued refresh token stops working.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refreshRequest  body      RefreshRequest  false  "Refresh token (optional when the refreshToken cookie is set)"
// @Success      200             {object}  TokenPair
// @Failure      401             {object}  ErrorResponse
// @Failure      500             {object}  ErrorResponse
// @Router       /users/refresh [post]
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := incomingRefreshToken(r)
	if tokenString == "" {
		writeError(w, apperror.Unauthorized("refresh token required"))
		return
	}

	claims, err := auth.VerifyRefreshToken(tokenString, s.config.JWT.RefreshSecret)
	if err != nil {
		writeError(w, apperror.Unauthorized("invalid refresh token"))
		return
	}

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, apperror.Unauthorized("invalid refresh token"))
		return
	}

	accessToken, err := auth.GenerateAccessToken(user, s.config.JWT.AccessSecret, s.config.JWT.AccessTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, s.config.JWT.RefreshSecret, s.config.JWT.RefreshTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	// Compare-and-swap against the stored value. A stale token matches
	// nothing: rotation already happened and this one is spent.
	rotated, err := s.store.RotateRefreshToken(r.Context(), user.ID, tokenString, refreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	if !rotated {
		writeError(w, apperror.Unauthorized("refresh token is expired or already used"))
		return
	}

	pair := TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}
	setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

type MessageResponse struct {
	Message string `json:"message"`
}

// @Summary      Log out
// @Description  Clears the stored refresh token and both auth cookies.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/logout [post]
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := s.store.ClearRefreshToken(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	clearAuthCookies(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out successfully"})
}
