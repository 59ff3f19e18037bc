package database

import (
	"context"
	"penbox/internal/models"
	"testing"

	"github.com/stretchr/testify/require"
)

func createTestCollection(t *testing.T, params CreateCollectionParams) *models.Collection {
	t.Helper()

	col, err := testStore.CreateCollection(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, col)
	return col
}

func TestCreateCollection(t *testing.T) {
	authorID := createTestUser(t, "col_create@example.com")

	col := createTestCollection(t, CreateCollectionParams{
		ID:          "create_col_test_00001",
		AuthorID:    authorID,
		Title:       "CSS tricks",
		Description: "Snippets worth keeping",
	})

	require.Equal(t, "create_col_test_00001", col.ID)
	require.Equal(t, authorID, col.AuthorID)
	require.Equal(t, "CSS tricks", col.Title)
	require.Equal(t, "Snippets worth keeping", col.Description)
	require.Equal(t, models.VisibilityPublic, col.Visibility)
	require.False(t, col.Deleted)
}

func TestUpdateCollection(t *testing.T) {
	authorID := createTestUser(t, "col_update@example.com")
	otherID := createTestUser(t, "col_update_other@example.com")
	col := createTestCollection(t, CreateCollectionParams{ID: "update_col_test_0001x", AuthorID: authorID, Title: "Before"})

	updated, err := testStore.UpdateCollection(context.Background(), UpdateCollectionParams{
		ID: col.ID, AuthorID: authorID, Title: "After", Description: "now described",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, "After", updated.Title)
	require.Equal(t, "now described", updated.Description)

	stolen, err := testStore.UpdateCollection(context.Background(), UpdateCollectionParams{
		ID: col.ID, AuthorID: otherID, Title: "Hijacked",
	})
	require.NoError(t, err)
	require.Nil(t, stolen, "only the author may edit a collection")
}

func TestListPublicCollections_VisibilityFilter(t *testing.T) {
	authorID := createTestUser(t, "col_vis@example.com")

	public := createTestCollection(t, CreateCollectionParams{ID: "vis_public_col_00001x", AuthorID: authorID, Title: "Public"})
	private := createTestCollection(t, CreateCollectionParams{ID: "vis_private_col_0001x", AuthorID: authorID, Title: "Private"})
	trashed := createTestCollection(t, CreateCollectionParams{ID: "vis_trashed_col_0001x", AuthorID: authorID, Title: "Trashed"})

	_, err := testStore.SetCollectionVisibility(context.Background(), private.ID, authorID, models.VisibilityPrivate)
	require.NoError(t, err)
	_, err = testStore.SetCollectionDeleted(context.Background(), trashed.ID, authorID, true)
	require.NoError(t, err)

	cols, err := testStore.ListPublicCollections(context.Background(), 200, 0)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, c := range cols {
		ids[c.ID] = true
		require.Equal(t, models.VisibilityPublic, c.Visibility)
		require.False(t, c.Deleted)
		require.NotNil(t, c.Author)
	}
	require.True(t, ids[public.ID])
	require.False(t, ids[private.ID])
	require.False(t, ids[trashed.ID])
}

func TestCollectionTrashAndRestore(t *testing.T) {
	authorID := createTestUser(t, "col_trash@example.com")
	col := createTestCollection(t, CreateCollectionParams{ID: "trash_col_test_00001x", AuthorID: authorID, Title: "Disposable"})

	trashedCol, err := testStore.SetCollectionDeleted(context.Background(), col.ID, authorID, true)
	require.NoError(t, err)
	require.True(t, trashedCol.Deleted)

	active, err := testStore.ListUserCollections(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Empty(t, active)

	trash, err := testStore.ListTrashedCollections(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	require.Equal(t, col.ID, trash[0].ID)

	restored, err := testStore.SetCollectionDeleted(context.Background(), col.ID, authorID, false)
	require.NoError(t, err)
	require.False(t, restored.Deleted)

	trash, err = testStore.ListTrashedCollections(context.Background(), authorID, 200, 0)
	require.NoError(t, err)
	require.Empty(t, trash)
}

func TestDeleteCollection(t *testing.T) {
	authorID := createTestUser(t, "col_delete@example.com")
	col := createTestCollection(t, CreateCollectionParams{ID: "del_col_test_000001xx", AuthorID: authorID, Title: "Doomed"})
	pen := createTestPen(t, CreatePenParams{ID: "del_col_member_pen_01", AuthorID: authorID, Title: "Member"})

	require.NoError(t, testStore.AddPenToCollection(context.Background(), col.ID, pen.ID, authorID))

	deleted, err := testStore.DeleteCollection(context.Background(), col.ID, authorID)
	require.NoError(t, err)
	require.True(t, deleted)

	exists, err := testStore.CollectionExists(context.Background(), col.ID)
	require.NoError(t, err)
	require.False(t, exists)

	// The pen survives, only the membership row goes.
	penExists, err := testStore.PenExists(context.Background(), pen.ID)
	require.NoError(t, err)
	require.True(t, penExists)

	var memberCount int
	err = testStore.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM collection_pens WHERE collection_id = $1`, col.ID).Scan(&memberCount)
	require.NoError(t, err)
	require.Zero(t, memberCount)
}

func TestAddPenToCollection(t *testing.T) {
	authorID := createTestUser(t, "col_member@example.com")
	otherID := createTestUser(t, "col_member_other@example.com")
	col := createTestCollection(t, CreateCollectionParams{ID: "member_col_test_0001x", AuthorID: authorID, Title: "Bucket"})
	pen := createTestPen(t, CreatePenParams{ID: "member_pen_test_0001x", AuthorID: authorID, Title: "Kept"})

	require.NoError(t, testStore.AddPenToCollection(context.Background(), col.ID, pen.ID, authorID))
	require.ErrorIs(t, testStore.AddPenToCollection(context.Background(), col.ID, pen.ID, authorID), ErrAlreadyInCollection)
	require.ErrorIs(t, testStore.AddPenToCollection(context.Background(), col.ID, "missing_pen_member_01", authorID), ErrPenNotFound)

	// Someone who does not own the collection cannot add to it.
	err := testStore.AddPenToCollection(context.Background(), col.ID, pen.ID, otherID)
	require.ErrorIs(t, err, ErrCollectionNotFound)

	removed, err := testStore.RemovePenFromCollection(context.Background(), col.ID, pen.ID, otherID)
	require.NoError(t, err)
	require.False(t, removed, "removal is gated on collection ownership too")

	removed, err = testStore.RemovePenFromCollection(context.Background(), col.ID, pen.ID, authorID)
	require.NoError(t, err)
	require.True(t, removed)
}

func TestGetVisibleCollection_EmbedsPens(t *testing.T) {
	authorID := createTestUser(t, "col_embed@example.com")
	viewerID := createTestUser(t, "col_embed_viewer@example.com")
	col := createTestCollection(t, CreateCollectionParams{ID: "embed_col_test_00001x", AuthorID: authorID, Title: "Showcase"})

	first := createTestPen(t, CreatePenParams{ID: "embed_pen_first_0001x", AuthorID: authorID, Title: "First"})
	second := createTestPen(t, CreatePenParams{ID: "embed_pen_second_001x", AuthorID: authorID, Title: "Second"})
	hidden := createTestPen(t, CreatePenParams{ID: "embed_pen_hidden_001x", AuthorID: authorID, Title: "Hidden"})

	require.NoError(t, testStore.AddPenToCollection(context.Background(), col.ID, first.ID, authorID))
	require.NoError(t, testStore.AddPenToCollection(context.Background(), col.ID, second.ID, authorID))
	require.NoError(t, testStore.AddPenToCollection(context.Background(), col.ID, hidden.ID, authorID))

	_, err := testStore.SetPenDeleted(context.Background(), hidden.ID, authorID, true)
	require.NoError(t, err)

	found, err := testStore.GetVisibleCollection(context.Background(), col.ID, viewerID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Pens, 2, "trashed member pens stay out of the embedded list")
	require.Equal(t, first.ID, found.Pens[0].ID, "members keep insertion order")
	require.Equal(t, second.ID, found.Pens[1].ID)

	// Private collections are invisible to everyone but the author.
	_, err = testStore.SetCollectionVisibility(context.Background(), col.ID, authorID, models.VisibilityPrivate)
	require.NoError(t, err)

	hiddenCol, err := testStore.GetVisibleCollection(context.Background(), col.ID, viewerID)
	require.NoError(t, err)
	require.Nil(t, hiddenCol)

	own, err := testStore.GetVisibleCollection(context.Background(), col.ID, authorID)
	require.NoError(t, err)
	require.NotNil(t, own)
}
