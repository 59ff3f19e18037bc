package database

import (
	"context"
	"penbox/internal/models"
	"testing"

	"github.com/stretchr/testify/require"
)

func createTestPen(t *testing.T, params CreatePenParams) *models.Pen {
	t.Helper()

	pen, err := testStore.CreatePen(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, pen)
	return pen
}

func TestCreatePen(t *testing.T) {
	authorID := createTestUser(t, "pen_create@example.com")

	pen := createTestPen(t, CreatePenParams{
		ID:       "create_pen_test_00001",
		AuthorID: authorID,
		Title:    "Bouncing ball",
		Code: models.CodeBundle{
			HTML: "<div id=\"ball\"></div>",
			CSS:  "#ball { border-radius: 50%; }",
			JS:   "console.log(\"bounce\");",
		},
	})

	require.Equal(t, "create_pen_test_00001", pen.ID)
	require.Equal(t, authorID, pen.AuthorID)
	require.Equal(t, "Bouncing ball", pen.Title)
	require.Equal(t, "#ball { border-radius: 50%; }", pen.Code.CSS)
	require.Equal(t, models.VisibilityPublic, pen.Visibility, "pens default to public")
	require.False(t, pen.Deleted)
	require.Zero(t, pen.Stats.Likes)
	require.Zero(t, pen.Stats.Views)
}

func TestListPublicPens_VisibilityFilter(t *testing.T) {
	aliceID := createTestUser(t, "alice_pens@example.com")
	bobID := createTestUser(t, "bob_pens@example.com")

	public := createTestPen(t, CreatePenParams{ID: "vis_public_pen_000001", AuthorID: aliceID, Title: "Public"})
	private := createTestPen(t, CreatePenParams{ID: "vis_private_pen_00001", AuthorID: aliceID, Title: "Private"})
	trashed := createTestPen(t, CreatePenParams{ID: "vis_trashed_pen_00001", AuthorID: aliceID, Title: "Trashed"})

	_, err := testStore.SetPenVisibility(context.Background(), private.ID, aliceID, models.VisibilityPrivate)
	require.NoError(t, err)
	_, err = testStore.SetPenDeleted(context.Background(), trashed.ID, aliceID, true)
	require.NoError(t, err)

	pens, err := testStore.ListPublicPens(context.Background(), 200, 0)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, p := range pens {
		ids[p.ID] = true
		require.Equal(t, models.VisibilityPublic, p.Visibility)
		require.False(t, p.Deleted)
		require.NotNil(t, p.Author, "public listing joins an author summary")
	}
	require.True(t, ids[public.ID])
	require.False(t, ids[private.ID], "another user's private pen must not be listed")
	require.False(t, ids[trashed.ID], "trashed pens must not be listed")

	// Bob's own listing contains none of Alice's pens.
	bobPens, err := testStore.ListUserPens(context.Background(), bobID, 200, 0)
	require.NoError(t, err)
	require.Empty(t, bobPens)
}

func TestListUserPens_OrderedByUpdate(t *testing.T) {
	authorID := createTestUser(t, "ordering@example.com")

	older := createTestPen(t, CreatePenParams{ID: "order_older_pen_00001", AuthorID: authorID, Title: "Older"})
	newer := createTestPen(t, CreatePenParams{ID: "order_newer_pen_00001", AuthorID: authorID, Title: "Newer"})

	// Touching the older pen moves it to the front.
	_, err := testStore.UpdatePen(context.Background(), UpdatePenParams{
		ID: older.ID, AuthorID: authorID, Title: "Older touched",
	})
	require.NoError(t, err)

	pens, err := testStore.ListUserPens(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Len(t, pens, 2)
	require.Equal(t, older.ID, pens[0].ID)
	require.Equal(t, newer.ID, pens[1].ID)
}

func TestGetVisiblePen(t *testing.T) {
	aliceID := createTestUser(t, "alice_visible@example.com")
	bobID := createTestUser(t, "bob_visible@example.com")

	pen := createTestPen(t, CreatePenParams{ID: "visible_pen_test_0001", AuthorID: aliceID, Title: "Secret"})
	_, err := testStore.SetPenVisibility(context.Background(), pen.ID, aliceID, models.VisibilityPrivate)
	require.NoError(t, err)

	// The owner still sees their private pen.
	found, err := testStore.GetVisiblePen(context.Background(), pen.ID, aliceID)
	require.NoError(t, err)
	require.NotNil(t, found)

	// Anyone else does not.
	hidden, err := testStore.GetVisiblePen(context.Background(), pen.ID, bobID)
	require.NoError(t, err)
	require.Nil(t, hidden)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	authorID := createTestUser(t, "softdelete@example.com")
	pen := createTestPen(t, CreatePenParams{ID: "soft_delete_pen_00001", AuthorID: authorID, Title: "Disposable"})

	trashedPen, err := testStore.SetPenDeleted(context.Background(), pen.ID, authorID, true)
	require.NoError(t, err)
	require.NotNil(t, trashedPen)
	require.True(t, trashedPen.Deleted)

	active, err := testStore.ListUserPens(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Empty(t, active, "trashed pen must leave the active list")

	trash, err := testStore.ListTrashedPens(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	require.Equal(t, pen.ID, trash[0].ID)

	restored, err := testStore.SetPenDeleted(context.Background(), pen.ID, authorID, false)
	require.NoError(t, err)
	require.False(t, restored.Deleted)

	active, err = testStore.ListUserPens(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)

	trash, err = testStore.ListTrashedPens(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Empty(t, trash)
}

func TestSetPenDeleted_WrongAuthor(t *testing.T) {
	aliceID := createTestUser(t, "alice_wrong@example.com")
	bobID := createTestUser(t, "bob_wrong@example.com")
	pen := createTestPen(t, CreatePenParams{ID: "wrong_author_pen_0001", AuthorID: aliceID, Title: "Alice's"})

	stolen, err := testStore.SetPenDeleted(context.Background(), pen.ID, bobID, true)
	require.NoError(t, err)
	require.Nil(t, stolen, "only the author may trash a pen")
}

func TestDeletePen(t *testing.T) {
	authorID := createTestUser(t, "harddelete@example.com")
	likerID := createTestUser(t, "liker@example.com")
	pen := createTestPen(t, CreatePenParams{ID: "hard_delete_pen_00001", AuthorID: authorID, Title: "Doomed"})

	require.NoError(t, testStore.LikePen(context.Background(), pen.ID, likerID))

	deleted, err := testStore.DeletePen(context.Background(), pen.ID, authorID)
	require.NoError(t, err)
	require.True(t, deleted)

	exists, err := testStore.PenExists(context.Background(), pen.ID)
	require.NoError(t, err)
	require.False(t, exists)

	var likeCount int
	err = testStore.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM pen_likes WHERE pen_id = $1`, pen.ID).Scan(&likeCount)
	require.NoError(t, err)
	require.Zero(t, likeCount, "likes must go with the pen")

	deleted, err = testStore.DeletePen(context.Background(), pen.ID, authorID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestLikePen(t *testing.T) {
	authorID := createTestUser(t, "like_author@example.com")
	fanID := createTestUser(t, "like_fan@example.com")
	pen := createTestPen(t, CreatePenParams{ID: "like_pen_test_000001x", AuthorID: authorID, Title: "Popular"})

	require.NoError(t, testStore.LikePen(context.Background(), pen.ID, fanID))
	require.ErrorIs(t, testStore.LikePen(context.Background(), pen.ID, fanID), ErrAlreadyLiked)
	require.ErrorIs(t, testStore.LikePen(context.Background(), "missing_pen_id_000001", fanID), ErrPenNotFound)

	found, err := testStore.GetVisiblePen(context.Background(), pen.ID, fanID)
	require.NoError(t, err)
	require.Equal(t, int64(1), found.Stats.Likes)

	removed, err := testStore.UnlikePen(context.Background(), pen.ID, fanID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = testStore.UnlikePen(context.Background(), pen.ID, fanID)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestRecordPenView_Idempotent(t *testing.T) {
	authorID := createTestUser(t, "view_author@example.com")
	viewerID := createTestUser(t, "view_viewer@example.com")
	pen := createTestPen(t, CreatePenParams{ID: "view_pen_test_000001x", AuthorID: authorID, Title: "Watched"})

	require.NoError(t, testStore.RecordPenView(context.Background(), pen.ID, viewerID))
	require.NoError(t, testStore.RecordPenView(context.Background(), pen.ID, viewerID))

	found, err := testStore.GetVisiblePen(context.Background(), pen.ID, viewerID)
	require.NoError(t, err)
	require.Equal(t, int64(1), found.Stats.Views, "the same viewer counts once")
}
