package interfaces

import (
	"context"

	"github.com/dealscope/dealscope/internal/models"
)

// PageArchive persists snapshots of scraped detail pages for audit and
// offline re-extraction.
type PageArchive interface {
	SavePage(ctx context.Context, page *models.ArchivedPage) error
	GetPage(ctx context.Context, id string) (*models.ArchivedPage, error)
	ListPagesByJob(ctx context.Context, jobID string) ([]*models.ArchivedPage, error)
	CountPages(ctx context.Context) (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	PageArchive() PageArchive
	Close() error
}
