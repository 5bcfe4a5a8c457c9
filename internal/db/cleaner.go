package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/atinyakov/DocPortal/internal/models"
	"github.com/atinyakov/DocPortal/internal/storage"
	"go.uber.org/zap"
)

// FileStore is the part of the upload tree the sweeper walks.
type FileStore interface {
	List(c models.Category) ([]storage.FileInfo, error)
	Remove(c models.Category, name string) error
}

// StartOrphanSweeper periodically deletes uploaded files that no document
// row references and that are older than grace. Such files are left behind
// when an upload is written but its row is never inserted.
func StartOrphanSweeper(
	ctx context.Context,
	db *sql.DB,
	files FileStore,
	interval time.Duration,
	grace time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := SweepOrphans(ctx, db, files, time.Now().Add(-grace), log)
				if removed > 0 {
					log.Info("swept orphaned uploads", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// SweepOrphans runs a single pass and returns how many files were removed.
// Files modified after cutoff are kept.
func SweepOrphans(ctx context.Context, db *sql.DB, files FileStore, cutoff time.Time, log *zap.Logger) int {
	removed := 0
	for _, c := range models.Categories {
		list, err := files.List(c)
		if err != nil {
			log.Error("failed to list uploads", zap.String("category", c.String()), zap.Error(err))
			continue
		}
		for _, f := range list {
			if ctx.Err() != nil {
				return removed
			}
			if f.ModTime.After(cutoff) {
				continue
			}

			var referenced bool
			err := db.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM documents WHERE category = $1 AND filename = $2)`,
				string(c), f.Name,
			).Scan(&referenced)
			if err != nil {
				log.Error("failed to check upload reference",
					zap.String("category", c.String()), zap.String("file", f.Name), zap.Error(err))
				continue
			}
			if referenced {
				continue
			}

			if err := files.Remove(c, f.Name); err != nil {
				log.Error("failed to remove orphaned upload",
					zap.String("category", c.String()), zap.String("file", f.Name), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed
}
