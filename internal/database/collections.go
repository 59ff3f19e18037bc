package database

import (
	"context"
	"errors"
	"penbox/internal/models"

	"github.com/jackc/pgx/v5"
)

const collectionColumns = `
	c.id, c.author_id, c.title, c.description,
	c.visibility, c.deleted, c.created_at, c.updated_at`

func scanCollection(row pgx.Row) (*models.Collection, error) {
	var col models.Collection
	err := row.Scan(
		&col.ID,
		&col.AuthorID,
		&col.Title,
		&col.Description,
		&col.Visibility,
		&col.Deleted,
		&col.CreatedAt,
		&col.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &col, nil
}

func (q *Queries) collectCollections(rows pgx.Rows, withAuthor bool) ([]models.Collection, error) {
	defer rows.Close()

	var cols []models.Collection
	for rows.Next() {
		var col models.Collection
		dest := []interface{}{
			&col.ID, &col.AuthorID, &col.Title, &col.Description,
			&col.Visibility, &col.Deleted, &col.CreatedAt, &col.UpdatedAt,
		}
		if withAuthor {
			col.Author = &models.UserSummary{}
			dest = append(dest, &col.Author.ID, &col.Author.Name, &col.Author.Picture)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if cols == nil {
		return []models.Collection{}, nil
	}

	return cols, nil
}

type CreateCollectionParams struct {
	ID          string
	AuthorID    int64
	Title       string
	Description string
}

func (q *Queries) CreateCollection(ctx context.Context, arg CreateCollectionParams) (*models.Collection, error) {
	query := `
		INSERT INTO collections (id, author_id, title, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, author_id, title, description, visibility, deleted, created_at, updated_at
	`
	row := q.db.QueryRow(ctx, query, arg.ID, arg.AuthorID, arg.Title, arg.Description)
	return scanCollection(row)
}

func (q *Queries) ListPublicCollections(ctx context.Context, limit, offset int) ([]models.Collection, error) {
	query := `
		SELECT ` + collectionColumns + `, u.id, u.name, u.picture
		FROM collections c
		JOIN users u ON c.author_id = u.id
		WHERE c.visibility = 'public' AND c.deleted = FALSE
		ORDER BY c.updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := q.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return q.collectCollections(rows, true)
}

func (q *Queries) ListUserCollections(ctx context.Context, authorID int64, limit, offset int) ([]models.Collection, error) {
	query := `
		SELECT ` + collectionColumns + `
		FROM collections c
		WHERE c.author_id = $1 AND c.deleted = FALSE
		ORDER BY c.updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return q.collectCollections(rows, false)
}

func (q *Queries) ListTrashedCollections(ctx context.Context, authorID int64, limit, offset int) ([]models.Collection, error) {
	query := `
		SELECT ` + collectionColumns + `
		FROM collections c
		WHERE c.author_id = $1 AND c.deleted = TRUE
		ORDER BY c.updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return q.collectCollections(rows, false)
}

// GetVisibleCollection fetches one collection the viewer may see and embeds
// its member pens.
func (q *Queries) GetVisibleCollection(ctx context.Context, id string, viewerID int64) (*models.Collection, error) {
	query := `
		SELECT ` + collectionColumns + `
		FROM collections c
		WHERE c.id = $1
		  AND (c.author_id = $2 OR (c.visibility = 'public' AND c.deleted = FALSE))
	`
	col, err := scanCollection(q.db.QueryRow(ctx, query, id, viewerID))
	if err != nil || col == nil {
		return col, err
	}

	pensQuery := `
		SELECT ` + penColumns + `
		FROM pens p
		JOIN collection_pens cp ON cp.pen_id = p.id
		WHERE cp.collection_id = $1 AND p.deleted = FALSE
		ORDER BY cp.added_at
	`
	rows, err := q.db.Query(ctx, pensQuery, id)
	if err != nil {
		return nil, err
	}
	pens, err := q.collectPens(rows, false)
	if err != nil {
		return nil, err
	}
	col.Pens = pens

	return col, nil
}

type UpdateCollectionParams struct {
	ID          string
	AuthorID    int64
	Title       string
	Description string
}

func (q *Queries) UpdateCollection(ctx context.Context, arg UpdateCollectionParams) (*models.Collection, error) {
	query := `
		UPDATE collections c
		SET title = $3, description = $4, updated_at = now()
		WHERE c.id = $1 AND c.author_id = $2
		RETURNING ` + collectionColumns

	row := q.db.QueryRow(ctx, query, arg.ID, arg.AuthorID, arg.Title, arg.Description)
	return scanCollection(row)
}

func (q *Queries) SetCollectionVisibility(ctx context.Context, id string, authorID int64, visibility string) (*models.Collection, error) {
	query := `
		UPDATE collections c
		SET visibility = $3, updated_at = now()
		WHERE c.id = $1 AND c.author_id = $2
		RETURNING ` + collectionColumns

	return scanCollection(q.db.QueryRow(ctx, query, id, authorID, visibility))
}

func (q *Queries) SetCollectionDeleted(ctx context.Context, id string, authorID int64, deleted bool) (*models.Collection, error) {
	query := `
		UPDATE collections c
		SET deleted = $3, updated_at = now()
		WHERE c.id = $1 AND c.author_id = $2
		RETURNING ` + collectionColumns

	return scanCollection(q.db.QueryRow(ctx, query, id, authorID, deleted))
}

func (q *Queries) DeleteCollection(ctx context.Context, id string, authorID int64) (bool, error) {
	query := `DELETE FROM collections WHERE id = $1 AND author_id = $2`
	res, err := q.db.Exec(ctx, query, id, authorID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (q *Queries) CollectionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM collections WHERE id = $1)`
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

// AddPenToCollection links a pen into a collection the caller owns.
func (q *Queries) AddPenToCollection(ctx context.Context, collectionID, penID string, authorID int64) error {
	query := `
		INSERT INTO collection_pens (collection_id, pen_id)
		SELECT c.id, $2
		FROM collections c
		WHERE c.id = $1 AND c.author_id = $3
	`
	res, err := q.db.Exec(ctx, query, collectionID, penID, authorID)
	if err != nil {
		if uniqueViolation(err) {
			return ErrAlreadyInCollection
		}
		if foreignKeyViolation(err) {
			return ErrPenNotFound
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func (q *Queries) RemovePenFromCollection(ctx context.Context, collectionID, penID string, authorID int64) (bool, error) {
	query := `
		DELETE FROM collection_pens cp
		USING collections c
		WHERE cp.collection_id = c.id
		  AND cp.collection_id = $1 AND cp.pen_id = $2 AND c.author_id = $3
	`
	res, err := q.db.Exec(ctx, query, collectionID, penID, authorID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
