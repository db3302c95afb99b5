package repository

import (
	"context"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"
	"snapgram/internal/observability"
)

// FileRepository stores images in the configured bucket.
type FileRepository interface {
	Upload(ctx context.Context, name, contentType string, content []byte) (*models.File, error)
	PreviewURL(fileID string) (string, error)
	Delete(ctx context.Context, fileID string) error
	Bucket() string
}

type fileRepository struct {
	files FileStore
	cols  Collections
	log   *observability.RepoLogger
}

func NewFileRepository(files FileStore, cols Collections) FileRepository {
	return &fileRepository{files: files, cols: cols, log: observability.NewRepoLogger("files")}
}

func (r *fileRepository) Bucket() string { return r.cols.Bucket }

func (r *fileRepository) Upload(ctx context.Context, name, contentType string, content []byte) (*models.File, error) {
	var file models.File
	id := appwrite.UniqueID()
	in := appwrite.InputFile{Name: name, ContentType: contentType, Content: content}
	if err := r.files.CreateFile(ctx, r.cols.Bucket, id, in, &file); err != nil {
		r.log.LogError(ctx, err, "upload")
		return nil, wrapRemote("upload file", "File", id, err)
	}
	if file.ID == "" {
		file.ID = id
	}
	r.log.LogCreate(ctx, map[string]interface{}{"file_id": file.ID, "size": len(content)})
	return &file, nil
}

// PreviewURL derives the 2000x2000 top-gravity preview of fileID.
func (r *fileRepository) PreviewURL(fileID string) (string, error) {
	u, err := r.files.FilePreviewURL(r.cols.Bucket, fileID, appwrite.DefaultPreview)
	if err != nil {
		return "", models.NewRemoteError("get file preview", err)
	}
	return u, nil
}

func (r *fileRepository) Delete(ctx context.Context, fileID string) error {
	if err := r.files.DeleteFile(ctx, r.cols.Bucket, fileID); err != nil {
		r.log.LogError(ctx, err, "delete")
		return wrapRemote("delete file", "File", fileID, err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"file_id": fileID})
	return nil
}
