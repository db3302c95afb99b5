package repository

import (
	"context"
	"errors"
	"time"

	"snapgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrphanRepository is the ledger of uploads whose cleanup failed.
type OrphanRepository interface {
	Record(ctx context.Context, bucketID, fileID, reason string, cause error) error
	ListPending(ctx context.Context, limit int) ([]models.OrphanedFile, error)
	MarkResolved(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, cause error, maxAttempts int) error
}

type orphanRepository struct {
	db *gorm.DB
}

// NewOrphanRepository returns a gorm-backed OrphanRepository.
func NewOrphanRepository(db *gorm.DB) OrphanRepository {
	return &orphanRepository{db: db}
}

// Record inserts a pending row for fileID. Recording the same file again
// resets it to pending with the latest error.
func (r *orphanRepository) Record(ctx context.Context, bucketID, fileID, reason string, cause error) error {
	if fileID == "" {
		return models.NewValidationError("file id is required")
	}
	row := models.OrphanedFile{
		FileID:    fileID,
		BucketID:  bucketID,
		Reason:    reason,
		LastError: errString(cause),
		Status:    models.OrphanPending,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason", "last_error", "status", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *orphanRepository) ListPending(ctx context.Context, limit int) ([]models.OrphanedFile, error) {
	var rows []models.OrphanedFile
	q := r.db.WithContext(ctx).Where("status = ?", models.OrphanPending).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *orphanRepository) MarkResolved(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.OrphanedFile{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.OrphanResolved,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		})
	return checkAffected(res, id)
}

// MarkFailed records a failed retry. The row stays pending until it has been
// attempted maxAttempts times.
func (r *orphanRepository) MarkFailed(ctx context.Context, id uint, cause error, maxAttempts int) error {
	var row models.OrphanedFile
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("OrphanedFile", id)
		}
		return models.NewInternalError(err)
	}

	status := models.OrphanPending
	if maxAttempts > 0 && row.Attempts+1 >= maxAttempts {
		status = models.OrphanFailed
	}
	res := r.db.WithContext(ctx).Model(&models.OrphanedFile{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   row.Attempts + 1,
			"last_error": errString(cause),
			"updated_at": time.Now(),
		})
	return checkAffected(res, id)
}

func checkAffected(res *gorm.DB, id uint) error {
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("OrphanedFile", id)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
