package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelierhq/atelier-api/internal/store"
)

// orphanGracePeriod protects files whose database row may not be committed
// yet (an upload in flight when the sweep runs).
const orphanGracePeriod = 24 * time.Hour

// PurgeRefreshTokens returns a job that deletes expired refresh tokens.
func PurgeRefreshTokens(st *store.Store, logger zerolog.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := st.PurgeExpiredRefreshTokens(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info().Int64("purged", n).Msg("Expired refresh tokens removed")
		}
		return nil
	}
}

// SweepOrphanUploads returns a job that deletes files in dir that no upload
// row references. Recently written files are left alone.
func SweepOrphanUploads(st *store.Store, dir string, logger zerolog.Logger) JobFunc {
	return func(ctx context.Context) error {
		known, err := st.ListUploadFilenames(ctx)
		if err != nil {
			return err
		}

		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}

		removed := 0
		for _, entry := range entries {
			if entry.IsDir() || known[entry.Name()] {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if time.Since(info.ModTime()) < orphanGracePeriod {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove orphan upload")
				continue
			}
			removed++
		}
		if removed > 0 {
			logger.Info().Int("removed", removed).Msg("Orphan upload files removed")
		}
		return nil
	}
}
