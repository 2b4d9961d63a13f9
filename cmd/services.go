package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/kozaktomas/photo-map/internal/config"
	"github.com/kozaktomas/photo-map/internal/database"
	"github.com/kozaktomas/photo-map/internal/database/mariadb"
	"github.com/kozaktomas/photo-map/internal/database/postgres"
	"github.com/kozaktomas/photo-map/internal/exifmeta"
	"github.com/kozaktomas/photo-map/internal/tagger"
	"go.uber.org/zap"
)

// newTagger builds the location tagger over the JPEG metadata store.
func newTagger(logger *zap.Logger) *tagger.Tagger {
	store := exifmeta.NewJPEGStore(logger.Named("exif"))
	return tagger.New(store, tagger.Options{Logger: logger.Named("tagger")})
}

// openMediaIndex connects the configured media index backend. PostgreSQL wins
// when both are configured. The returned closer must be closed by the caller.
func openMediaIndex(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (database.MediaWriter, io.Closer, error) {
	var closer io.Closer
	switch {
	case cfg.URL != "":
		pool, err := postgres.Initialize(ctx, cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		closer = pool
	case cfg.MariaDBDSN != "":
		pool, err := mariadb.Initialize(ctx, cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		closer = pool
	default:
		return nil, nil, database.ErrNotConfigured
	}

	index, err := database.GetMediaWriter(ctx)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	logger.Info("media index ready", zap.String("backend", database.Backend()))
	return index, closer, nil
}
