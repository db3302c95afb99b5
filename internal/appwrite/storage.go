package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
)

// ChunkSize is the largest payload sent in one upload request; bigger files
// are sent as consecutive Content-Range chunks.
const ChunkSize = 5 * 1024 * 1024

// PreviewOptions controls the derived preview image.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// DefaultPreview is what post and profile images are rendered with.
var DefaultPreview = PreviewOptions{Width: 2000, Height: 2000, Gravity: "top", Quality: 100}

// InputFile is an in-memory upload.
type InputFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// Storage exposes the bucket endpoints.
type Storage struct {
	client *Client
}

// NewStorage returns the storage service for c.
func NewStorage(c *Client) *Storage {
	return &Storage{client: c}
}

func filesPath(bucketID string) string {
	return "/storage/buckets/" + bucketID + "/files"
}

// CreateFile uploads f under fileID and decodes the stored file into out.
func (s *Storage) CreateFile(ctx context.Context, bucketID, fileID string, f InputFile, out any) error {
	if len(f.Content) == 0 {
		return fmt.Errorf("appwrite: empty upload")
	}
	size := len(f.Content)
	if size <= ChunkSize {
		return s.uploadChunk(ctx, bucketID, fileID, f, 0, size, "", out)
	}

	// the id echoed back by the first chunk ties the remaining chunks together
	var uploadID string
	for start := 0; start < size; start += ChunkSize {
		end := min(start+ChunkSize, size)
		var chunk struct {
			ID string `json:"$id"`
		}
		target := any(&chunk)
		if end == size {
			target = out
		}
		if err := s.uploadChunk(ctx, bucketID, fileID, f, start, end, uploadID, target); err != nil {
			return err
		}
		if uploadID == "" {
			uploadID = chunk.ID
			if uploadID == "" {
				uploadID = fileID
			}
		}
	}
	return nil
}

func (s *Storage) uploadChunk(ctx context.Context, bucketID, fileID string, f InputFile, start, end int, uploadID string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("fileId", fileID); err != nil {
		return err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(f.Content[start:end]); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	r := &request{
		service:     "storage",
		operation:   "createFile",
		method:      http.MethodPost,
		path:        filesPath(bucketID),
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		header:      http.Header{},
	}
	if len(f.Content) > ChunkSize {
		r.header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, len(f.Content)))
	}
	if uploadID != "" {
		r.header.Set("X-Appwrite-Id", uploadID)
	}
	return s.client.do(ctx, r, out)
}

// FilePreviewURL derives the preview URL of a stored file. No request is made.
func (s *Storage) FilePreviewURL(bucketID, fileID string, opts PreviewOptions) (string, error) {
	if bucketID == "" || fileID == "" {
		return "", fmt.Errorf("appwrite: bucket and file id are required for a preview url")
	}
	q := url.Values{}
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		q.Set("gravity", opts.Gravity)
	}
	if opts.Quality > 0 {
		q.Set("quality", strconv.Itoa(opts.Quality))
	}
	q.Set("project", s.client.ProjectID())
	return s.client.url(filesPath(bucketID)+"/"+fileID+"/preview", q), nil
}

// DeleteFile removes a stored file.
func (s *Storage) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	r, err := s.client.jsonRequest("storage", "deleteFile", http.MethodDelete, filesPath(bucketID)+"/"+fileID, nil, nil)
	if err != nil {
		return err
	}
	return s.client.do(ctx, r, nil)
}
