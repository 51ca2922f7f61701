package services

import (
	"os"
	"path/filepath"
	"time"

	"github.com/riffhouse/riffhouse/pkg/internal/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func DoAutoDatabaseCleanup() {
	deadline := time.Now().Add(-24 * time.Hour)
	log.Debug().Time("deadline", deadline).Msg("Now cleaning up entire database...")

	// Deal soft-deletion
	var count int64
	for _, model := range database.AutoMaintainRange {
		tx := database.C.Unscoped().Delete(model, "deleted_at IS NOT NULL AND deleted_at < ?", deadline)
		if tx.Error != nil {
			log.Error().Err(tx.Error).Msg("An error occurred when running database cleanup...")
		}
		count += tx.RowsAffected
	}

	log.Debug().Int64("affected", count).Msg("Clean up entire database accomplished.")

	DoAutoWorkspaceCleanup()
}

// DoAutoWorkspaceCleanup removes media scratch directories leaked by jobs
// that were killed before their deferred cleanup could run.
func DoAutoWorkspaceCleanup() {
	root := viper.GetString("media.temp_dir")
	if len(root) == 0 {
		root = filepath.Join(os.TempDir(), "riffhouse")
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}

	deadline := time.Now().Add(-24 * time.Hour)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.ModTime().After(deadline) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			log.Warn().Err(err).Str("entry", entry.Name()).Msg("An error occurred when sweeping media workspace...")
		}
	}
}
