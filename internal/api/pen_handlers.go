package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"penbox/internal/apperror"
	"penbox/internal/database"
	"penbox/internal/models"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
)

// generatePenID mints a 21-char nanoid that is not yet taken.
func (s *Server) generatePenID(ctx context.Context) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		exists, err := s.store.PenExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for pen existence: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

// publishEvent pushes an event to the owner's connected editor sessions.
func (s *Server) publishEvent(userID int64, eventType string, payload interface{}) {
	if s.wsHub == nil {
		return
	}
	eventMsg := map[string]interface{}{"event_type": eventType, "payload": payload}
	eventBytes, err := json.Marshal(eventMsg)
	if err != nil {
		return
	}
	s.wsHub.PublishEvent(userID, eventBytes)
}

type CreatePenRequest struct {
	Title string `json:"title" example:"Bouncing ball"`
	HTML  string `json:"html"`
	CSS   string `json:"css"`
	JS    string `json:"js"`
}

// @Summary      Create a pen
// @Tags         pens
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createPenRequest  body      CreatePenRequest  true  "Pen data"
// @Success      201  {object}  models.Pen
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /pens/ [post]
func (s *Server) CreatePenHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req CreatePenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, apperror.Validation("title is required"))
		return
	}

	penID, err := s.generatePenID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var pen *models.Pen
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		pen, err = q.CreatePen(r.Context(), database.CreatePenParams{
			ID:       penID,
			AuthorID: user.ID,
			Title:    req.Title,
			Code:     models.CodeBundle{HTML: req.HTML, CSS: req.CSS, JS: req.JS},
		})
		if err != nil {
			return err
		}
		return q.LogEvent(r.Context(), user.ID, "pen_created", pen)
	})
	if txErr != nil {
		writeError(w, txErr)
		return
	}

	s.publishEvent(user.ID, "pen_created", pen)
	writeJSON(w, http.StatusCreated, pen)
}

// @Summary      List public pens
// @Description  Public, non-trashed pens of every user with an author summary, most recently updated first.
// @Tags         pens
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Pen
// @Router       /pens/ [get]
func (s *Server) ListPensHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	pens, err := s.store.ListPublicPens(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pens)
}

// @Summary      List the caller's pens
// @Tags         pens
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Pen
// @Router       /pens/get [get]
func (s *Server) ListUserPensHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	pens, err := s.store.ListUserPens(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pens)
}

// @Summary      List the caller's trashed pens
// @Tags         pens
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Pen
// @Router       /pens/tempDel [get]
func (s *Server) ListTrashedPensHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	pens, err := s.store.ListTrashedPens(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pens)
}

// @Summary      Fetch one pen
// @Description  Returns a pen the caller may see (their own, or a public one) and records a view.
// @Tags         pens
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Success      200  {object}  models.Pen
// @Failure      404  {object}  ErrorResponse
// @Router       /pens/current/{id} [get]
func (s *Server) GetCurrentPenHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	penID := chi.URLParam(r, "id")

	pen, err := s.store.GetVisiblePen(r.Context(), penID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if pen == nil {
		writeError(w, apperror.NotFound("pen"))
		return
	}

	// Views are a set of viewers, so refreshing the page does not inflate
	// the counter. The bumped count shows up on the next fetch.
	if pen.AuthorID != user.ID {
		if err := s.store.RecordPenView(r.Context(), penID, user.ID); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, pen)
}

type UpdatePenRequest struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
	CSS   string `json:"css"`
	JS    string `json:"js"`
}

// @Summary      Update a pen
// @Tags         pens
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Param        updatePenRequest  body      UpdatePenRequest  true  "New title and code"
// @Success      200  {object}  models.Pen
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /pens/{id} [put]
func (s *Server) UpdatePenHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	penID := chi.URLParam(r, "id")

	var req UpdatePenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, apperror.Validation("title is required"))
		return
	}

	pen, err := s.store.UpdatePen(r.Context(), database.UpdatePenParams{
		ID:       penID,
		AuthorID: user.ID,
		Title:    req.Title,
		Code:     models.CodeBundle{HTML: req.HTML, CSS: req.CSS, JS: req.JS},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if pen == nil {
		writeError(w, apperror.NotFound("pen"))
		return
	}

	s.publishEvent(user.ID, "pen_updated", pen)
	writeJSON(w, http.StatusOK, pen)
}

type SetVisibilityRequest struct {
	Value string `json:"value" example:"private"`
}

// @Summary      Set pen visibility
// @Tags         pens
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Param        setVisibilityRequest  body      SetVisibilityRequest  true  "public or private"
// @Success      200  {object}  models.Pen
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /pens/{id} [post]
func (s *Server) SetPenVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	penID := chi.URLParam(r, "id")

	var req SetVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if req.Value != models.VisibilityPublic && req.Value != models.VisibilityPrivate {
		writeError(w, apperror.Validation("visibility must be public or private"))
		return
	}

	pen, err := s.store.SetPenVisibility(r.Context(), penID, user.ID, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	if pen == nil {
		writeError(w, apperror.NotFound("pen"))
		return
	}

	writeJSON(w, http.StatusOK, pen)
}

// @Summary      Move a pen to trash
// @Tags         pens
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Success      200  {object}  models.Pen
// @Failure      404  {object}  ErrorResponse
// @Router       /pens/tempDel/{id} [post]
func (s *Server) TempDeletePenHandler(w http.ResponseWriter, r *http.Request) {
	s.setPenDeleted(w, r, true, "pen_trashed")
}

// @Summary      Restore a pen from trash
// @Tags         pens
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Success      200  {object}  models.Pen
// @Failure      404  {object}  ErrorResponse
// @Router       /pens/restore/{id} [post]
func (s *Server) RestorePenHandler(w http.ResponseWriter, r *http.Request) {
	s.setPenDeleted(w, r, false, "pen_restored")
}

func (s *Server) setPenDeleted(w http.ResponseWriter, r *http.Request, deleted bool, eventType string) {
	user := GetUserFromContext(r.Context())
	penID := chi.URLParam(r, "id")

	var pen *models.Pen
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		pen, err = q.SetPenDeleted(r.Context(), penID, user.ID, deleted)
		if err != nil {
			return err
		}
		if pen == nil {
			return database.ErrPenNotFound
		}
		return q.LogEvent(r.Context(), user.ID, eventType, pen)
	})
	if txErr != nil {
		if errors.Is(txErr, database.ErrPenNotFound) {
			writeError(w, apperror.NotFound("pen"))
			return
		}
		writeError(w, txErr)
		return
	}

	s.publishEvent(user.ID, eventType, pen)
	writeJSON(w, http.StatusOK, pen)
}

// @Summary      Delete a pen permanently
// @Description  Removes the pen for good, including likes, views and collection membership. Works from both active and trashed state.
// @Tags         pens
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Success      204  {null}    nil
// @Failure      404  {object}  ErrorResponse
// @Router       /pens/{id} [delete]
func (s *Server) DeletePenHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	penID := chi.URLParam(r, "id")

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		deleted, err := q.DeletePen(r.Context(), penID, user.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return database.ErrPenNotFound
		}
		return q.LogEvent(r.Context(), user.ID, "pen_deleted", map[string]string{"id": penID})
	})
	if txErr != nil {
		if errors.Is(txErr, database.ErrPenNotFound) {
			writeError(w, apperror.NotFound("pen"))
			return
		}
		writeError(w, txErr)
		return
	}

	s.publishEvent(user.ID, "pen_deleted", map[string]string{"id": penID})
	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Like a pen
// @Tags         pens
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Success      204  {null}    nil
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /pens/{id}/like [post]
func (s *Server) LikePenHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	penID := chi.URLParam(r, "id")

	if err := s.store.LikePen(r.Context(), penID, user.ID); err != nil {
		switch {
		case errors.Is(err, database.ErrAlreadyLiked):
			writeError(w, apperror.Conflict("pen already liked"))
		case errors.Is(err, database.ErrPenNotFound):
			writeError(w, apperror.NotFound("pen"))
		default:
			writeError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Remove a like
// @Tags         pens
// @Security     BearerAuth
// @Param        id  path  string  true  "Pen ID"
// @Success      204  {null}    nil
// @Failure      404  {object}  ErrorResponse
// @Router       /pens/{id}/like [delete]
func (s *Server) UnlikePenHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	penID := chi.URLParam(r, "id")

	removed, err := s.store.UnlikePen(r.Context(), penID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, apperror.NotFound("like"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
