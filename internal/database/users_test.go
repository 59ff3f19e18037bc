package database

import (
	"context"
	"penbox/internal/auth"
	"testing"

	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, email string) int64 {
	t.Helper()

	hash, err := auth.HashPassword("secretpassword")
	require.NoError(t, err)

	user, err := testStore.CreateUser(context.Background(), CreateUserParams{
		Name:         "Test User",
		Email:        email,
		PasswordHash: &hash,
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.ID
}

func TestCreateUser(t *testing.T) {
	hash, err := auth.HashPassword("secretpassword")
	require.NoError(t, err)

	user, err := testStore.CreateUser(context.Background(), CreateUserParams{
		Name:         "Ada",
		Email:        "ada_create@example.com",
		PasswordHash: &hash,
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotZero(t, user.ID)
	require.Equal(t, "Ada", user.Name)
	require.Equal(t, "ada_create@example.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	require.True(t, auth.CheckPasswordHash("secretpassword", *user.PasswordHash))
	require.Nil(t, user.RefreshToken)
	require.NotZero(t, user.CreatedAt)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	createTestUser(t, "dup@example.com")

	_, err := testStore.CreateUser(context.Background(), CreateUserParams{
		Name:  "Second",
		Email: "dup@example.com",
	})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	var count int
	err = testStore.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM users WHERE email = $1`, "dup@example.com").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "duplicate registration must not create a second record")
}

func TestCreateUser_Federated(t *testing.T) {
	// Accounts created through federated login have no password at all.
	googleID := "google-oauth2|12345"
	user, err := testStore.CreateUser(context.Background(), CreateUserParams{
		Name:     "Fed User",
		Email:    "fed@example.com",
		GoogleID: &googleID,
	})

	require.NoError(t, err)
	require.Nil(t, user.PasswordHash)
	require.NotNil(t, user.GoogleID)
}

func TestGetUserByEmail(t *testing.T) {
	userID := createTestUser(t, "lookup@example.com")

	found, err := testStore.GetUserByEmail(context.Background(), "lookup@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, userID, found.ID)

	missing, err := testStore.GetUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUpdateUser(t *testing.T) {
	userID := createTestUser(t, "before_update@example.com")

	updated, err := testStore.UpdateUser(context.Background(), userID, "New Name", "after_update@example.com")
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, "after_update@example.com", updated.Email)

	missing, err := testStore.UpdateUser(context.Background(), -1, "x", "missing_update@example.com")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDeleteUser_CascadesPens(t *testing.T) {
	userID := createTestUser(t, "cascade@example.com")
	pen := createTestPen(t, CreatePenParams{ID: "cascade_del_pen_00001", AuthorID: userID, Title: "Orphan"})

	deleted, err := testStore.DeleteUser(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, deleted)

	exists, err := testStore.PenExists(context.Background(), pen.ID)
	require.NoError(t, err)
	require.False(t, exists, "deleting a user must not leave their pens behind")

	deleted, err = testStore.DeleteUser(context.Background(), userID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestRefreshTokenRotation(t *testing.T) {
	userID := createTestUser(t, "rotate@example.com")

	require.NoError(t, testStore.SetRefreshToken(context.Background(), userID, "token-one"))

	// Swapping the current token succeeds exactly once.
	rotated, err := testStore.RotateRefreshToken(context.Background(), userID, "token-one", "token-two")
	require.NoError(t, err)
	require.True(t, rotated)

	// The stale value no longer matches anything.
	rotated, err = testStore.RotateRefreshToken(context.Background(), userID, "token-one", "token-three")
	require.NoError(t, err)
	require.False(t, rotated)

	user, err := testStore.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user.RefreshToken)
	require.Equal(t, "token-two", *user.RefreshToken)

	require.NoError(t, testStore.ClearRefreshToken(context.Background(), userID))
	user, err = testStore.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.Nil(t, user.RefreshToken)
}

func TestSetRefreshToken_MissingUser(t *testing.T) {
	err := testStore.SetRefreshToken(context.Background(), -1, "whatever")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowUser(t *testing.T) {
	aliceID := createTestUser(t, "alice_follow@example.com")
	bobID := createTestUser(t, "bob_follow@example.com")

	require.NoError(t, testStore.FollowUser(context.Background(), aliceID, bobID))
	require.ErrorIs(t, testStore.FollowUser(context.Background(), aliceID, bobID), ErrAlreadyFollowing)
	require.ErrorIs(t, testStore.FollowUser(context.Background(), aliceID, -1), ErrUserNotFound)

	followers, err := testStore.ListFollowers(context.Background(), bobID, 50, 0)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	require.Equal(t, aliceID, followers[0].ID)

	following, err := testStore.ListFollowing(context.Background(), aliceID, 50, 0)
	require.NoError(t, err)
	require.Len(t, following, 1)
	require.Equal(t, bobID, following[0].ID)

	removed, err := testStore.UnfollowUser(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = testStore.UnfollowUser(context.Background(), aliceID, bobID)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestListUsers(t *testing.T) {
	createTestUser(t, "list_users@example.com")

	users, err := testStore.ListUsers(context.Background(), 200, 0)
	require.NoError(t, err)
	require.NotEmpty(t, users)
}
