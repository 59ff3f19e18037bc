package database

import (
	"context"
	"errors"
	"penbox/internal/models"

	"github.com/jackc/pgx/v5"
)

const penColumns = `
	p.id, p.author_id, p.title, p.code_html, p.code_css, p.code_js,
	p.visibility, p.deleted, p.created_at, p.updated_at,
	(SELECT count(*) FROM pen_likes l WHERE l.pen_id = p.id) AS likes,
	(SELECT count(*) FROM pen_views v WHERE v.pen_id = p.id) AS views`

func scanPen(row pgx.Row) (*models.Pen, error) {
	var pen models.Pen
	err := row.Scan(
		&pen.ID,
		&pen.AuthorID,
		&pen.Title,
		&pen.Code.HTML,
		&pen.Code.CSS,
		&pen.Code.JS,
		&pen.Visibility,
		&pen.Deleted,
		&pen.CreatedAt,
		&pen.UpdatedAt,
		&pen.Stats.Likes,
		&pen.Stats.Views,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &pen, nil
}

func (q *Queries) collectPens(rows pgx.Rows, withAuthor bool) ([]models.Pen, error) {
	defer rows.Close()

	var pens []models.Pen
	for rows.Next() {
		var pen models.Pen
		dest := []interface{}{
			&pen.ID, &pen.AuthorID, &pen.Title,
			&pen.Code.HTML, &pen.Code.CSS, &pen.Code.JS,
			&pen.Visibility, &pen.Deleted, &pen.CreatedAt, &pen.UpdatedAt,
			&pen.Stats.Likes, &pen.Stats.Views,
		}
		if withAuthor {
			pen.Author = &models.UserSummary{}
			dest = append(dest, &pen.Author.ID, &pen.Author.Name, &pen.Author.Picture)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		pens = append(pens, pen)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if pens == nil {
		return []models.Pen{}, nil
	}

	return pens, nil
}

type CreatePenParams struct {
	ID       string
	AuthorID int64
	Title    string
	Code     models.CodeBundle
}

func (q *Queries) CreatePen(ctx context.Context, arg CreatePenParams) (*models.Pen, error) {
	query := `
		INSERT INTO pens (id, author_id, title, code_html, code_css, code_js)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, author_id, title, code_html, code_css, code_js,
			visibility, deleted, created_at, updated_at, 0::bigint, 0::bigint
	`
	row := q.db.QueryRow(ctx, query,
		arg.ID, arg.AuthorID, arg.Title,
		arg.Code.HTML, arg.Code.CSS, arg.Code.JS,
	)
	return scanPen(row)
}

// ListPublicPens returns public, non-trashed pens with an author summary,
// newest modification first.
func (q *Queries) ListPublicPens(ctx context.Context, limit, offset int) ([]models.Pen, error) {
	query := `
		SELECT ` + penColumns + `, u.id, u.name, u.picture
		FROM pens p
		JOIN users u ON p.author_id = u.id
		WHERE p.visibility = 'public' AND p.deleted = FALSE
		ORDER BY p.updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := q.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return q.collectPens(rows, true)
}

func (q *Queries) ListUserPens(ctx context.Context, authorID int64, limit, offset int) ([]models.Pen, error) {
	query := `
		SELECT ` + penColumns + `
		FROM pens p
		WHERE p.author_id = $1 AND p.deleted = FALSE
		ORDER BY p.updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return q.collectPens(rows, false)
}

func (q *Queries) ListTrashedPens(ctx context.Context, authorID int64, limit, offset int) ([]models.Pen, error) {
	query := `
		SELECT ` + penColumns + `
		FROM pens p
		WHERE p.author_id = $1 AND p.deleted = TRUE
		ORDER BY p.updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return q.collectPens(rows, false)
}

// GetVisiblePen fetches one pen the viewer may see: their own, or anyone's
// public non-trashed one.
func (q *Queries) GetVisiblePen(ctx context.Context, id string, viewerID int64) (*models.Pen, error) {
	query := `
		SELECT ` + penColumns + `
		FROM pens p
		WHERE p.id = $1
		  AND (p.author_id = $2 OR (p.visibility = 'public' AND p.deleted = FALSE))
	`
	return scanPen(q.db.QueryRow(ctx, query, id, viewerID))
}

func (q *Queries) PenExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pens WHERE id = $1)`
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

type UpdatePenParams struct {
	ID       string
	AuthorID int64
	Title    string
	Code     models.CodeBundle
}

func (q *Queries) UpdatePen(ctx context.Context, arg UpdatePenParams) (*models.Pen, error) {
	query := `
		UPDATE pens p
		SET title = $3, code_html = $4, code_css = $5, code_js = $6, updated_at = now()
		WHERE p.id = $1 AND p.author_id = $2
		RETURNING ` + penColumns

	row := q.db.QueryRow(ctx, query,
		arg.ID, arg.AuthorID, arg.Title,
		arg.Code.HTML, arg.Code.CSS, arg.Code.JS,
	)
	return scanPen(row)
}

func (q *Queries) SetPenVisibility(ctx context.Context, id string, authorID int64, visibility string) (*models.Pen, error) {
	query := `
		UPDATE pens p
		SET visibility = $3, updated_at = now()
		WHERE p.id = $1 AND p.author_id = $2
		RETURNING ` + penColumns

	return scanPen(q.db.QueryRow(ctx, query, id, authorID, visibility))
}

func (q *Queries) SetPenDeleted(ctx context.Context, id string, authorID int64, deleted bool) (*models.Pen, error) {
	query := `
		UPDATE pens p
		SET deleted = $3, updated_at = now()
		WHERE p.id = $1 AND p.author_id = $2
		RETURNING ` + penColumns

	return scanPen(q.db.QueryRow(ctx, query, id, authorID, deleted))
}

// DeletePen removes the record permanently. Likes, views and collection
// membership go with it via FK cascade.
func (q *Queries) DeletePen(ctx context.Context, id string, authorID int64) (bool, error) {
	query := `DELETE FROM pens WHERE id = $1 AND author_id = $2`
	res, err := q.db.Exec(ctx, query, id, authorID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (q *Queries) LikePen(ctx context.Context, penID string, userID int64) error {
	query := `INSERT INTO pen_likes (pen_id, user_id) VALUES ($1, $2)`
	_, err := q.db.Exec(ctx, query, penID, userID)
	if err != nil {
		if uniqueViolation(err) {
			return ErrAlreadyLiked
		}
		if foreignKeyViolation(err) {
			return ErrPenNotFound
		}
		return err
	}
	return nil
}

func (q *Queries) UnlikePen(ctx context.Context, penID string, userID int64) (bool, error) {
	query := `DELETE FROM pen_likes WHERE pen_id = $1 AND user_id = $2`
	res, err := q.db.Exec(ctx, query, penID, userID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// RecordPenView is idempotent per viewer, matching the original's
// set-of-user-refs view counter.
func (q *Queries) RecordPenView(ctx context.Context, penID string, userID int64) error {
	query := `INSERT INTO pen_views (pen_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := q.db.Exec(ctx, query, penID, userID)
	return err
}
