package recording

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mossy-p/webrtc-recorder/internal/models"
)

// Catalog is the part of the recording catalog the finalizer writes to.
type Catalog interface {
	FindOrCreateCallRecording(ctx context.Context, callID string) (*models.CallRecording, error)
	AddRecordingFiles(ctx context.Context, callID string, files []models.RecordingFile) (int64, error)
}

// FinalizeResult summarizes one finalization.
type FinalizeResult struct {
	Recording  *models.CallRecording
	Discovered int
	Registered int64
}

// Finalizer registers the media files of a finished call in the catalog.
type Finalizer struct {
	store   *Store
	catalog Catalog
	logger  *slog.Logger
}

func NewFinalizer(store *Store, catalog Catalog, logger *slog.Logger) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{store: store, catalog: catalog, logger: logger}
}

// Finalize ensures a recording exists for callID and registers every media
// file on disk for it. Files already registered are left untouched, so
// finalizing the same call again only adds files that appeared since.
func (f *Finalizer) Finalize(ctx context.Context, callID string) (*FinalizeResult, error) {
	if err := ValidateCallID(callID); err != nil {
		return nil, err
	}

	rec, err := f.catalog.FindOrCreateCallRecording(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create recording: %w", err)
	}

	found, err := f.store.Discover(callID)
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{Recording: rec, Discovered: len(found)}
	if len(found) == 0 {
		f.logger.Info("no media files to register", "call_id", callID)
		return result, nil
	}

	files := make([]models.RecordingFile, 0, len(found))
	for _, d := range found {
		files = append(files, models.RecordingFile{
			CallID:   callID,
			FilePath: d.Path,
			FileType: d.Type,
		})
	}

	n, err := f.catalog.AddRecordingFiles(ctx, callID, files)
	if err != nil {
		return nil, fmt.Errorf("failed to register recording files: %w", err)
	}
	result.Registered = n

	f.logger.Info("call finalized", "call_id", callID, "discovered", len(found), "registered", n)
	return result, nil
}
