package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"penbox/internal/apperror"
	"penbox/internal/auth"
	"penbox/internal/database"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type RegisterRequest struct {
	Name     string `json:"name" example:"Ada"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"hunter22"`
}

// @Summary      Register a user
// @Description  Creates an account. Email must be unique; password is stored as a bcrypt hash.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "Registration data"
// @Success      201              {object}  models.User
// @Failure      400              {object}  ErrorResponse
// @Failure      409              {object}  ErrorResponse
// @Failure      500              {object}  ErrorResponse
// @Router       /users/ [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, apperror.Validation("name, email and password are required"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), database.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &hash,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			writeError(w, apperror.Conflict("a user with this email already exists"))
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// @Summary      List users
// @Description  Lists registered users. Password hashes and refresh tokens are never serialized.
// @Tags         users
// @Produce      json
// @Success      200  {array}   models.User
// @Failure      500  {object}  ErrorResponse
// @Router       /users/ [get]
func (s *Server) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := s.store.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {object}  ErrorResponse
// @Router       /users/getCurrent [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetUserFromContext(r.Context()))
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// @Summary      Update name and email
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        updateUserRequest  body      UpdateUserRequest  true  "New name and email"
// @Success      200  {object}  models.User
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /users/ [put]
func (s *Server) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		writeError(w, apperror.Validation("name and email are required"))
		return
	}

	updated, err := s.store.UpdateUser(r.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			writeError(w, apperror.Conflict("a user with this email already exists"))
			return
		}
		writeError(w, err)
		return
	}
	if updated == nil {
		writeError(w, apperror.NotFound("user"))
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// @Summary      Delete account
// @Description  Deletes a user account. Callers may only delete themselves; owned pens and collections are removed as well.
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID"
// @Success      204  {null}    nil
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [delete]
func (s *Server) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	deleteID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.Validation("invalid user id"))
		return
	}
	if deleteID != user.ID {
		writeError(w, apperror.Forbidden("cannot delete another user's account"))
		return
	}

	deleted, err := s.store.DeleteUser(r.Context(), deleteID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apperror.NotFound("user"))
		return
	}

	clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Follow a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID to follow"
// @Success      204  {null}    nil
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /users/{id}/follow [post]
func (s *Server) FollowUserHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	followeeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.Validation("invalid user id"))
		return
	}
	if followeeID == user.ID {
		writeError(w, apperror.Validation("cannot follow yourself"))
		return
	}

	if err := s.store.FollowUser(r.Context(), user.ID, followeeID); err != nil {
		switch {
		case errors.Is(err, database.ErrAlreadyFollowing):
			writeError(w, apperror.Conflict("already following this user"))
		case errors.Is(err, database.ErrUserNotFound):
			writeError(w, apperror.NotFound("user"))
		default:
			writeError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Unfollow a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID to unfollow"
// @Success      204  {null}    nil
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/follow [delete]
func (s *Server) UnfollowUserHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	followeeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.Validation("invalid user id"))
		return
	}

	removed, err := s.store.UnfollowUser(r.Context(), user.ID, followeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, apperror.NotFound("follow relation"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      List a user's followers
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID"
// @Success      200  {array}   models.UserSummary
// @Failure      400  {object}  ErrorResponse
// @Router       /users/{id}/followers [get]
func (s *Server) ListFollowersHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.Validation("invalid user id"))
		return
	}
	limit, offset := parsePagination(r)

	followers, err := s.store.ListFollowers(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, followers)
}

// @Summary      List users someone follows
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "User ID"
// @Success      200  {array}   models.UserSummary
// @Failure      400  {object}  ErrorResponse
// @Router       /users/{id}/following [get]
func (s *Server) ListFollowingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperror.Validation("invalid user id"))
		return
	}
	limit, offset := parsePagination(r)

	following, err := s.store.ListFollowing(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, following)
}
