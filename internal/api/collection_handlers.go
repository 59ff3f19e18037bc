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

type CreateCollectionRequest struct {
	Title       string `json:"title" example:"CSS experiments"`
	Description string `json:"description"`
}

// @Summary      Create a collection
// @Tags         collections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createCollectionRequest  body      CreateCollectionRequest  true  "Collection data"
// @Success      201  {object}  models.Collection
// @Failure      400  {object}  ErrorResponse
// @Router       /collections/ [post]
func (s *Server) CreateCollectionHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, apperror.Validation("title is required"))
		return
	}

	collectionID, err := s.generateCollectionID(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var col *models.Collection
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		col, err = q.CreateCollection(r.Context(), database.CreateCollectionParams{
			ID:          collectionID,
			AuthorID:    user.ID,
			Title:       req.Title,
			Description: req.Description,
		})
		if err != nil {
			return err
		}
		return q.LogEvent(r.Context(), user.ID, "collection_created", col)
	})
	if txErr != nil {
		writeError(w, txErr)
		return
	}

	s.publishEvent(user.ID, "collection_created", col)
	writeJSON(w, http.StatusCreated, col)
}

func (s *Server) generateCollectionID(ctx context.Context) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		exists, err := s.store.CollectionExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for collection existence: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

// @Summary      List public collections
// @Tags         collections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Collection
// @Router       /collections/ [get]
func (s *Server) ListCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	cols, err := s.store.ListPublicCollections(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cols)
}

// @Summary      List the caller's collections
// @Tags         collections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Collection
// @Router       /collections/get [get]
func (s *Server) ListUserCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	cols, err := s.store.ListUserCollections(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cols)
}

// @Summary      List the caller's trashed collections
// @Tags         collections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Collection
// @Router       /collections/tempDel [get]
func (s *Server) ListTrashedCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	limit, offset := parsePagination(r)

	cols, err := s.store.ListTrashedCollections(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cols)
}

// @Summary      Fetch one collection
// @Description  Returns a collection the caller may see, with its member pens embedded.
// @Tags         collections
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Collection ID"
// @Success      200  {object}  models.Collection
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/current/{id} [get]
func (s *Server) GetCurrentCollectionHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	collectionID := chi.URLParam(r, "id")

	col, err := s.store.GetVisibleCollection(r.Context(), collectionID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if col == nil {
		writeError(w, apperror.NotFound("collection"))
		return
	}

	writeJSON(w, http.StatusOK, col)
}

type UpdateCollectionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// @Summary      Update a collection
// @Tags         collections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Collection ID"
// @Param        updateCollectionRequest  body      UpdateCollectionRequest  true  "New title and description"
// @Success      200  {object}  models.Collection
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/{id} [put]
func (s *Server) UpdateCollectionHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	collectionID := chi.URLParam(r, "id")

	var req UpdateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, apperror.Validation("title is required"))
		return
	}

	col, err := s.store.UpdateCollection(r.Context(), database.UpdateCollectionParams{
		ID:          collectionID,
		AuthorID:    user.ID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if col == nil {
		writeError(w, apperror.NotFound("collection"))
		return
	}

	s.publishEvent(user.ID, "collection_updated", col)
	writeJSON(w, http.StatusOK, col)
}

// @Summary      Set collection visibility
// @Tags         collections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Collection ID"
// @Param        setVisibilityRequest  body      SetVisibilityRequest  true  "public or private"
// @Success      200  {object}  models.Collection
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/{id} [post]
func (s *Server) SetCollectionVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	collectionID := chi.URLParam(r, "id")

	var req SetVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.Validation("invalid request body"))
		return
	}
	if req.Value != models.VisibilityPublic && req.Value != models.VisibilityPrivate {
		writeError(w, apperror.Validation("visibility must be public or private"))
		return
	}

	col, err := s.store.SetCollectionVisibility(r.Context(), collectionID, user.ID, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	if col == nil {
		writeError(w, apperror.NotFound("collection"))
		return
	}

	writeJSON(w, http.StatusOK, col)
}

// @Summary      Move a collection to trash
// @Tags         collections
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Collection ID"
// @Success      200  {object}  models.Collection
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/tempDel/{id} [post]
func (s *Server) TempDeleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	s.setCollectionDeleted(w, r, true, "collection_trashed")
}

// @Summary      Restore a collection from trash
// @Tags         collections
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Collection ID"
// @Success      200  {object}  models.Collection
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/restore/{id} [post]
func (s *Server) RestoreCollectionHandler(w http.ResponseWriter, r *http.Request) {
	s.setCollectionDeleted(w, r, false, "collection_restored")
}

func (s *Server) setCollectionDeleted(w http.ResponseWriter, r *http.Request, deleted bool, eventType string) {
	user := GetUserFromContext(r.Context())
	collectionID := chi.URLParam(r, "id")

	var col *models.Collection
	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		var err error
		col, err = q.SetCollectionDeleted(r.Context(), collectionID, user.ID, deleted)
		if err != nil {
			return err
		}
		if col == nil {
			return database.ErrCollectionNotFound
		}
		return q.LogEvent(r.Context(), user.ID, eventType, col)
	})
	if txErr != nil {
		if errors.Is(txErr, database.ErrCollectionNotFound) {
			writeError(w, apperror.NotFound("collection"))
			return
		}
		writeError(w, txErr)
		return
	}

	s.publishEvent(user.ID, eventType, col)
	writeJSON(w, http.StatusOK, col)
}

// @Summary      Delete a collection permanently
// @Description  Removes the collection for good. Member pens survive, only the grouping disappears.
// @Tags         collections
// @Security     BearerAuth
// @Param        id  path  string  true  "Collection ID"
// @Success      204  {null}    nil
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/{id} [delete]
func (s *Server) DeleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	collectionID := chi.URLParam(r, "id")

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		deleted, err := q.DeleteCollection(r.Context(), collectionID, user.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return database.ErrCollectionNotFound
		}
		return q.LogEvent(r.Context(), user.ID, "collection_deleted", map[string]string{"id": collectionID})
	})
	if txErr != nil {
		if errors.Is(txErr, database.ErrCollectionNotFound) {
			writeError(w, apperror.NotFound("collection"))
			return
		}
		writeError(w, txErr)
		return
	}

	s.publishEvent(user.ID, "collection_deleted", map[string]string{"id": collectionID})
	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Add a pen to a collection
// @Tags         collections
// @Security     BearerAuth
// @Param        id     path  string  true  "Collection ID"
// @Param        penId  path  string  true  "Pen ID"
// @Success      204  {null}    nil
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /collections/{id}/pens/{penId} [post]
func (s *Server) AddPenToCollectionHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	collectionID := chi.URLParam(r, "id")
	penID := chi.URLParam(r, "penId")

	if err := s.store.AddPenToCollection(r.Context(), collectionID, penID, user.ID); err != nil {
		switch {
		case errors.Is(err, database.ErrAlreadyInCollection):
			writeError(w, apperror.Conflict("pen is already in this collection"))
		case errors.Is(err, database.ErrCollectionNotFound):
			writeError(w, apperror.NotFound("collection"))
		case errors.Is(err, database.ErrPenNotFound):
			writeError(w, apperror.NotFound("pen"))
		default:
			writeError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Remove a pen from a collection
// @Tags         collections
// @Security     BearerAuth
// @Param        id     path  string  true  "Collection ID"
// @Param        penId  path  string  true  "Pen ID"
// @Success      204  {null}    nil
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/{id}/pens/{penId} [delete]
func (s *Server) RemovePenFromCollectionHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	collectionID := chi.URLParam(r, "id")
	penID := chi.URLParam(r, "penId")

	removed, err := s.store.RemovePenFromCollection(r.Context(), collectionID, penID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, apperror.NotFound("collection membership"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
