package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/co-intel-labs/labs-1.0/internal/models"
	"github.com/co-intel-labs/labs-1.0/internal/repositories"
)

// BlobPostgreSQL keeps each blob in a jsonb column keyed by blob name
type BlobPostgreSQL struct {
	db *gorm.DB
}

// NewBlobPostgreSQL migrates the blob table and returns the store
func NewBlobPostgreSQL(ctx context.Context, db *gorm.DB) (*BlobPostgreSQL, error) {
	if err := db.WithContext(ctx).AutoMigrate(&models.StoredBlob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage_blobs: %w", err)
	}
	return &BlobPostgreSQL{db: db}, nil
}

func (r *BlobPostgreSQL) Load(ctx context.Context, key string) ([]byte, error) {
	var blob models.StoredBlob
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&blob).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to load blob %s: %w", key, err)
	}
	return []byte(blob.Payload), nil
}

func (r *BlobPostgreSQL) Save(ctx context.Context, key string, payload []byte) error {
	blob := models.StoredBlob{
		Key:       key,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&blob).Error
	if err != nil {
		return fmt.Errorf("failed to save blob %s: %w", key, err)
	}
	return nil
}

func (r *BlobPostgreSQL) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.StoredBlob{}).Error
}

// Ping checks the health of the database connection
func (r *BlobPostgreSQL) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *BlobPostgreSQL) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

var _ repositories.BlobStore = (*BlobPostgreSQL)(nil)
