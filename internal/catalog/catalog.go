// Package catalog persists call recordings and the media files registered
// against them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mossy-p/webrtc-recorder/internal/models"
)

const slowQueryThreshold = 500 * time.Millisecond

// Options tunes how the catalog database is opened.
type Options struct {
	// Logger receives gorm warnings. Nil silences gorm.
	Logger *slog.Logger
}

// Catalog is the durable store of CallRecording and RecordingFile rows.
type Catalog struct {
	db *gorm.DB
}

// Open connects to the SQLite database at dsn and migrates the schema.
func Open(dsn string, opts Options) (*Catalog, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Discard}
	if opts.Logger != nil {
		gormCfg.Logger = gormlogger.New(
			slog.NewLogLogger(opts.Logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             slowQueryThreshold,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite allows a single writer; serializing through one connection
	// keeps concurrent finalizations from failing with SQLITE_BUSY.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Catalog, error) {
	if err := db.AutoMigrate(&models.CallRecording{}, &models.RecordingFile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database connection.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindOrCreateCallRecording returns the recording for callID, creating it
// with the current time if it does not exist yet. Concurrent callers for the
// same id all observe the single row that won the insert.
func (c *Catalog) FindOrCreateCallRecording(ctx context.Context, callID string) (*models.CallRecording, error) {
	if callID == "" {
		return nil, ErrInvalidCallID
	}

	rec := models.CallRecording{CallID: callID, Timestamp: time.Now().UTC()}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create call recording %s: %w", callID, err)
	}

	var out models.CallRecording
	if err := c.db.WithContext(ctx).First(&out, "call_id = ?", callID).Error; err != nil {
		return nil, fmt.Errorf("failed to load call recording %s: %w", callID, err)
	}
	return &out, nil
}

// AddRecordingFiles registers files against an existing recording in one
// transaction. Files already registered for the call are skipped, so the
// call's file set only ever grows by union. It returns how many rows were
// inserted.
func (c *Catalog) AddRecordingFiles(ctx context.Context, callID string, files []models.RecordingFile) (int64, error) {
	if callID == "" {
		return 0, ErrInvalidCallID
	}
	if len(files) == 0 {
		return 0, nil
	}

	rows := make([]models.RecordingFile, len(files))
	for i, f := range files {
		rows[i] = models.RecordingFile{CallID: callID, FilePath: f.FilePath, FileType: f.FileType}
	}

	var inserted int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CallRecording{}).Where("call_id = ?", callID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to add recording files for %s: %w", callID, err)
	}
	return inserted, nil
}

// GetCallRecording loads a recording with its files.
func (c *Catalog) GetCallRecording(ctx context.Context, callID string) (*models.CallRecording, error) {
	var rec models.CallRecording
	err := c.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&rec, "call_id = ?", callID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load call recording %s: %w", callID, err)
	}
	return &rec, nil
}

// ListCallRecordings returns recordings newest first, with their files.
func (c *Catalog) ListCallRecordings(ctx context.Context, limit, offset int) ([]models.CallRecording, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var recs []models.CallRecording
	err := c.db.WithContext(ctx).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("timestamp DESC").Order("call_id").
		Limit(limit).Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list call recordings: %w", err)
	}
	return recs, nil
}

// DeleteCallRecording removes a recording and every file row registered
// against it. Files on disk are left in place.
func (c *Catalog) DeleteCallRecording(ctx context.Context, callID string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("call_id = ?", callID).Delete(&models.RecordingFile{}).Error; err != nil {
			return fmt.Errorf("failed to delete recording files for %s: %w", callID, err)
		}
		res := tx.Where("call_id = ?", callID).Delete(&models.CallRecording{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete call recording %s: %w", callID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
