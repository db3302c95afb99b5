package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"mime"
	"strings"

	"snapgram/internal/config"
	"snapgram/internal/models"
	"snapgram/internal/observability"
	"snapgram/internal/repository"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	DefaultSweepBatch           = 50
	DefaultSweepMaxAttempts     = 5
)

var formatMIME = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// UploadInput is an image attached to a create or update request.
type UploadInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Present reports whether a file was attached.
func (in *UploadInput) Present() bool {
	return in != nil && len(in.Content) > 0
}

// SweepResult summarises one pass over the orphan ledger.
type SweepResult struct {
	Resolved int `json:"resolved"`
	Retrying int `json:"retrying"`
}

// FileService uploads images and cleans up after failed multi-step writes.
type FileService struct {
	files              repository.FileRepository
	orphans            repository.OrphanRepository
	maxUploadSizeBytes int64
}

// NewFileService builds a FileService. orphans may be nil, in which case
// failed cleanups are only logged.
func NewFileService(files repository.FileRepository, orphans repository.OrphanRepository, cfg *config.Config) *FileService {
	maxMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxMB = cfg.ImageMaxUploadSizeMB
	}
	return &FileService{
		files:              files,
		orphans:            orphans,
		maxUploadSizeBytes: int64(maxMB) * 1024 * 1024,
	}
}

// Validate checks that in holds a supported image within the size limit and
// returns its detected MIME type.
func (s *FileService) Validate(in UploadInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	detected, ok := formatMIME[format]
	if !ok {
		return "", models.NewValidationError("Unsupported image format")
	}

	if in.ContentType != "" {
		provided, _, err := mime.ParseMediaType(in.ContentType)
		if err == nil && strings.HasPrefix(provided, "image/") && !sameImageType(provided, detected) {
			return "", models.NewValidationError("Image content type mismatch")
		}
	}
	return detected, nil
}

// Upload stores the image and derives its preview URL. When the preview cannot
// be derived the stored file is deleted and a PARTIAL_FAILURE is returned.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (*models.UploadedImage, error) {
	contentType, err := s.Validate(in)
	if err != nil {
		return nil, err
	}

	name := in.Filename
	if name == "" {
		name = "upload"
	}
	file, err := s.files.Upload(ctx, name, contentType, in.Content)
	if err != nil {
		return nil, fail(ctx, "FileService", "Upload", err, map[string]interface{}{"filename": name})
	}

	url, err := s.files.PreviewURL(file.ID)
	if err != nil {
		s.Compensate(ctx, file.ID, "preview url unavailable")
		return nil, fail(ctx, "FileService", "Upload",
			models.NewPartialFailureError("Uploaded file has no preview URL", err),
			map[string]interface{}{"file_id": file.ID})
	}
	return &models.UploadedImage{FileID: file.ID, URL: url}, nil
}

// Compensate deletes fileID once. A failed delete is written to the orphan
// ledger for the sweeper; it never fails the caller.
func (s *FileService) Compensate(ctx context.Context, fileID, reason string) {
	if fileID == "" {
		return
	}
	err := s.files.Delete(ctx, fileID)
	if err == nil || models.CodeOf(err) == models.CodeNotFound {
		observability.CompensatingDeletes.WithLabelValues("deleted").Inc()
		return
	}

	observability.CompensatingDeletes.WithLabelValues("orphaned").Inc()
	observability.GlobalLogger.WarnContext(ctx, "file cleanup failed, recording orphan",
		slog.String("file_id", fileID),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)
	if s.orphans == nil {
		return
	}
	if recErr := s.orphans.Record(ctx, s.files.Bucket(), fileID, reason, err); recErr != nil {
		observability.GlobalLogger.ErrorContext(ctx, "failed to record orphaned file",
			slog.String("file_id", fileID),
			slog.String("error", recErr.Error()),
		)
	}
}

// SweepOrphans retries pending ledger entries. Entries reaching maxAttempts are
// marked failed and left for manual cleanup.
func (s *FileService) SweepOrphans(ctx context.Context, batch, maxAttempts int) (SweepResult, error) {
	var res SweepResult
	if s.orphans == nil {
		return res, nil
	}
	if batch <= 0 {
		batch = DefaultSweepBatch
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultSweepMaxAttempts
	}

	pending, err := s.orphans.ListPending(ctx, batch)
	if err != nil {
		return res, fail(ctx, "FileService", "SweepOrphans", err, nil)
	}

	for _, o := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		delErr := s.files.Delete(ctx, o.FileID)
		if delErr == nil || models.CodeOf(delErr) == models.CodeNotFound {
			if err := s.orphans.MarkResolved(ctx, o.ID); err != nil {
				return res, fail(ctx, "FileService", "SweepOrphans", err, map[string]interface{}{"orphan_id": o.ID})
			}
			observability.CompensatingDeletes.WithLabelValues("swept").Inc()
			res.Resolved++
			continue
		}
		if err := s.orphans.MarkFailed(ctx, o.ID, delErr, maxAttempts); err != nil {
			return res, fail(ctx, "FileService", "SweepOrphans", err, map[string]interface{}{"orphan_id": o.ID})
		}
		res.Retrying++
	}
	return res, nil
}

func sameImageType(provided, detected string) bool {
	if provided == "image/jpg" || provided == "image/pjpeg" {
		provided = "image/jpeg"
	}
	return provided == detected
}
