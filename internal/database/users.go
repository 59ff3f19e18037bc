package database

import (
	"context"
	"errors"
	"penbox/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password_hash, picture, google_id, refresh_token, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Picture,
		&user.GoogleID,
		&user.RefreshToken,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash *string
	Picture      *string
	GoogleID     *string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, picture, google_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	row := q.db.QueryRow(ctx, query, arg.Name, arg.Email, arg.PasswordHash, arg.Picture, arg.GoogleID)

	user, err := scanUser(row)
	if err != nil {
		if uniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRow(ctx, query, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) ListUsers(ctx context.Context, limit int, offset int) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := q.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Picture,
			&user.GoogleID,
			&user.RefreshToken,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		return []models.User{}, nil
	}

	return users, nil
}

func (q *Queries) UpdateUser(ctx context.Context, id int64, name, email string) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(q.db.QueryRow(ctx, query, id, name, email))
	if err != nil {
		if uniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (q *Queries) DeleteUser(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM users WHERE id = $1`
	res, err := q.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// SetRefreshToken overwrites the single stored refresh token. One active
// session per user: a concurrent login invalidates the previous token.
func (q *Queries) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	query := `UPDATE users SET refresh_token = $2 WHERE id = $1`
	res, err := q.db.Exec(ctx, query, userID, token)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken swaps old for new only if old is still the stored
// value. The WHERE clause is the whole revocation mechanism: a stale token
// matches zero rows and the rotation fails.
func (q *Queries) RotateRefreshToken(ctx context.Context, userID int64, oldToken, newToken string) (bool, error) {
	query := `UPDATE users SET refresh_token = $3 WHERE id = $1 AND refresh_token = $2`
	res, err := q.db.Exec(ctx, query, userID, oldToken, newToken)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (q *Queries) ClearRefreshToken(ctx context.Context, userID int64) error {
	query := `UPDATE users SET refresh_token = NULL WHERE id = $1`
	_, err := q.db.Exec(ctx, query, userID)
	return err
}

func (q *Queries) FollowUser(ctx context.Context, followerID, followeeID int64) error {
	query := `INSERT INTO user_follows (follower_id, followee_id) VALUES ($1, $2)`
	_, err := q.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		if uniqueViolation(err) {
			return ErrAlreadyFollowing
		}
		if foreignKeyViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (q *Queries) UnfollowUser(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `DELETE FROM user_follows WHERE follower_id = $1 AND followee_id = $2`
	res, err := q.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (q *Queries) listRelatedUsers(ctx context.Context, query string, userID int64, limit, offset int) ([]models.UserSummary, error) {
	rows, err := q.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserSummary
	for rows.Next() {
		var user models.UserSummary
		if err := rows.Scan(&user.ID, &user.Name, &user.Picture); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		return []models.UserSummary{}, nil
	}

	return users, nil
}

func (q *Queries) ListFollowers(ctx context.Context, userID int64, limit, offset int) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.name, u.picture
		FROM user_follows f
		JOIN users u ON f.follower_id = u.id
		WHERE f.followee_id = $1
		ORDER BY f.followed_at DESC
		LIMIT $2 OFFSET $3
	`
	return q.listRelatedUsers(ctx, query, userID, limit, offset)
}

func (q *Queries) ListFollowing(ctx context.Context, userID int64, limit, offset int) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.name, u.picture
		FROM user_follows f
		JOIN users u ON f.followee_id = u.id
		WHERE f.follower_id = $1
		ORDER BY f.followed_at DESC
		LIMIT $2 OFFSET $3
	`
	return q.listRelatedUsers(ctx, query, userID, limit, offset)
}
