package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/pagedesk/internal/storage"
)

func TestSQLiteRevisionStore(t *testing.T) {
	db := newTestDB(t)
	users := storage.NewSQLiteUserStore(db)
	pages := storage.NewSQLitePageStore(db)
	s := storage.NewSQLiteRevisionStore(db)
	ctx := context.Background()

	mustCreateUser(t, users, storage.User{ID: "u1", Email: "u1@example.com", IsActive: true})
	mustCreatePage(t, pages, "p1", "", "Home")

	now := time.Now().UTC().Truncate(time.Second)
	rev := storage.Revision{
		ID:          "r1",
		PageID:      "p1",
		SubmittedBy: "u1",
		Status:      storage.RevisionInModeration,
		Content:     `{"title":"Home"}`,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.CreateRevision(ctx, rev))

	t.Run("get", func(t *testing.T) {
		got, err := s.GetRevision(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "p1", got.PageID)
		assert.Equal(t, "u1", got.SubmittedBy)
		assert.Equal(t, storage.RevisionInModeration, got.Status)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.GetRevision(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update status", func(t *testing.T) {
		require.NoError(t, s.UpdateStatus(ctx, "r1", storage.RevisionApproved))
		got, err := s.GetRevision(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, storage.RevisionApproved, got.Status)
	})

	t.Run("update status of missing revision", func(t *testing.T) {
		err := s.UpdateStatus(ctx, "missing", storage.RevisionApproved)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list for page newest first", func(t *testing.T) {
		later := now.Add(time.Minute)
		require.NoError(t, s.CreateRevision(ctx, storage.Revision{
			ID: "r2", PageID: "p1", SubmittedBy: "u1",
			Status: storage.RevisionInModeration, Content: "{}",
			CreatedAt: later, UpdatedAt: later,
		}))

		revs, err := s.ListRevisionsForPage(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, "r2", revs[0].ID)
	})
}
