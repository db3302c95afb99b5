package repository

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testCollections = Collections{
	DatabaseID: "db",
	Users:      "users",
	Posts:      "posts",
	Saves:      "saves",
	Bucket:     "media",
}

type storeCall struct {
	Method     string
	Collection string
	ID         string
	Data       any
	Queries    []appwrite.Query
}

// recordingStore is an in-memory DocumentStore and FileStore. Responses are
// JSON bodies keyed by method; errors are keyed the same way.
type recordingStore struct {
	mu        sync.Mutex
	calls     []storeCall
	responses map[string]string
	errs      map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{responses: map[string]string{}, errs: map[string]error{}}
}

func (s *recordingStore) record(method, col, id string, data any, q []appwrite.Query, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, storeCall{Method: method, Collection: col, ID: id, Data: data, Queries: q})
	if err := s.errs[method]; err != nil {
		return err
	}
	if body, ok := s.responses[method]; ok && out != nil {
		return json.Unmarshal([]byte(body), out)
	}
	return nil
}

func (s *recordingStore) Calls() []storeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storeCall(nil), s.calls...)
}

func (s *recordingStore) CreateDocument(_ context.Context, _, col, id string, data any, out any) error {
	return s.record("create", col, id, data, nil, out)
}

func (s *recordingStore) GetDocument(_ context.Context, _, col, id string, q []appwrite.Query, out any) error {
	return s.record("get", col, id, nil, q, out)
}

func (s *recordingStore) UpdateDocument(_ context.Context, _, col, id string, data any, out any) error {
	return s.record("update", col, id, data, nil, out)
}

func (s *recordingStore) DeleteDocument(_ context.Context, _, col, id string) error {
	return s.record("delete", col, id, nil, nil, nil)
}

func (s *recordingStore) ListDocuments(_ context.Context, _, col string, q []appwrite.Query, out any) error {
	return s.record("list", col, "", nil, q, out)
}

func (s *recordingStore) CreateFile(_ context.Context, bucket, id string, f appwrite.InputFile, out any) error {
	return s.record("createFile", bucket, id, f.Name, nil, out)
}

func (s *recordingStore) FilePreviewURL(bucket, id string, _ appwrite.PreviewOptions) (string, error) {
	if err := s.record("preview", bucket, id, nil, nil, nil); err != nil {
		return "", err
	}
	return "https://files.example/" + bucket + "/" + id + "/preview", nil
}

func (s *recordingStore) DeleteFile(_ context.Context, bucket, id string) error {
	return s.record("deleteFile", bucket, id, nil, nil, nil)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OrphanedFile{}))
	return db
}
