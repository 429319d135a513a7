package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir() + "/db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPageStorageSaveAndGet(t *testing.T) {
	storage := NewPageStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	page := &models.ArchivedPage{
		ID:         "page_test1",
		JobID:      "job_1",
		Competitor: "Gunn Nissan",
		URL:        "https://www.gunnnissan.com/vdp-1",
		Title:      "2025 Nissan Altima",
		Markdown:   "# Altima\nMSRP $28,500",
		FetchedAt:  time.Now(),
	}

	require.NoError(t, storage.SavePage(ctx, page))

	got, err := storage.GetPage(ctx, "page_test1")
	require.NoError(t, err)
	assert.Equal(t, page.URL, got.URL)
	assert.Equal(t, page.Markdown, got.Markdown)
}

func TestPageStorageRequiresID(t *testing.T) {
	storage := NewPageStorage(newTestDB(t), arbor.NewLogger())

	err := storage.SavePage(context.Background(), &models.ArchivedPage{URL: "https://example.com"})
	assert.Error(t, err)
}

func TestPageStorageListByJob(t *testing.T) {
	storage := NewPageStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	base := time.Now()
	for i, jobID := range []string{"job_a", "job_a", "job_b"} {
		require.NoError(t, storage.SavePage(ctx, &models.ArchivedPage{
			ID:        "page_" + string(rune('a'+i)),
			JobID:     jobID,
			URL:       "https://example.com/vdp",
			FetchedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	pages, err := storage.ListPagesByJob(ctx, "job_a")
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	count, err := storage.CountPages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPageStorageGetMissing(t *testing.T) {
	storage := NewPageStorage(newTestDB(t), arbor.NewLogger())

	_, err := storage.GetPage(context.Background(), "page_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
