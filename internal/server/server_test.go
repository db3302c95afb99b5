package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"snapgram/internal/config"
	"snapgram/internal/models"
	"snapgram/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (f *sweepFiles) Upload(context.Context, string, string, []byte) (*models.File, error) {
	return nil, nil
}
func (f *sweepFiles) PreviewURL(string) (string, error) { return "", nil }
func (f *sweepFiles) Bucket() string                    { return "bucket" }
func (f *sweepFiles) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type sweepLedger struct {
	mu       sync.Mutex
	pending  []models.OrphanedFile
	resolved []uint
}

func (l *sweepLedger) Record(context.Context, string, string, string, error) error { return nil }
func (l *sweepLedger) ListPending(_ context.Context, _ int) ([]models.OrphanedFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out, nil
}
func (l *sweepLedger) MarkResolved(_ context.Context, id uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolved = append(l.resolved, id)
	return nil
}
func (l *sweepLedger) MarkFailed(context.Context, uint, error, int) error { return nil }

func (l *sweepLedger) resolvedIDs() []uint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint(nil), l.resolved...)
}

func TestSweepOrphans_RunsUntilCancelled(t *testing.T) {
	env := newTestEnv(t)
	files := &sweepFiles{}
	ledger := &sweepLedger{pending: []models.OrphanedFile{{ID: 7, FileID: "f7"}}}
	env.srv.files = service.NewFileService(files, ledger, &config.Config{ImageMaxUploadSizeMB: 1})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.srv.sweepOrphans(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(ledger.resolvedIDs()) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
	assert.Equal(t, []uint{7}, ledger.resolvedIDs())
	assert.Equal(t, []string{"f7"}, files.deleted)
}

func TestStartShutdown_WithoutWorkers(t *testing.T) {
	env := newTestEnv(t)

	env.srv.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, env.srv.Shutdown(ctx))
}
