package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantpick/internal/clients/objectstore"
)

type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	modified  map[string]time.Time
	deleteErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, modified: map[string]time.Time{}}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []objectstore.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, objectstore.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type fakeSnapshotter struct {
	name    string
	content string
	err     error
}

func (f *fakeSnapshotter) Name() string { return f.name }

func (f *fakeSnapshotter) Backup(ctx context.Context, destPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, []byte(f.content), 0o644)
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := map[string]string{}
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = string(body)
	}
	return files
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestCreateAndUploadBackup(t *testing.T) {
	store := newMemoryStore()
	svc := NewBackupService(store, t.TempDir(), zerolog.Nop(),
		&fakeSnapshotter{name: "history", content: "history-bytes"},
		&fakeSnapshotter{name: "cache", content: "cache-bytes"},
	)
	svc.now = fixedClock(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC))

	key, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backups/quantpick-backup-2024-03-04-050607.tar.gz", key)

	files := readArchive(t, store.objects[key])
	assert.Equal(t, "history-bytes", files["history.db"])
	assert.Equal(t, "cache-bytes", files["cache.db"])

	var meta BackupMetadata
	require.NoError(t, json.Unmarshal([]byte(files["backup-metadata.json"]), &meta))
	require.Len(t, meta.Databases, 2)
	assert.Equal(t, "history", meta.Databases[0].Name)
	assert.Equal(t, int64(len("history-bytes")), meta.Databases[0].SizeBytes)
	assert.True(t, strings.HasPrefix(meta.Databases[0].Checksum, "sha256:"))
}

func TestCreateAndUploadBackup_SnapshotFailure(t *testing.T) {
	store := newMemoryStore()
	boom := errors.New("disk full")
	svc := NewBackupService(store, t.TempDir(), zerolog.Nop(), &fakeSnapshotter{name: "history", err: boom})

	_, err := svc.CreateAndUploadBackup(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, store.objects)
}

func seedBackups(store *memoryStore, stamps ...string) {
	for _, s := range stamps {
		store.objects[BackupPrefix+s+".tar.gz"] = []byte("x")
	}
}

func TestListBackups(t *testing.T) {
	store := newMemoryStore()
	seedBackups(store, "2024-01-01-000000", "2024-01-03-000000", "2024-01-02-000000")
	store.objects[BackupPrefix+"garbage.tar.gz"] = []byte("x")

	svc := NewBackupService(store, t.TempDir(), zerolog.Nop())
	svc.now = fixedClock(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, 3, backups[0].Timestamp.Day(), "newest first")
	assert.Equal(t, int64(24), backups[0].AgeHours)
}

func TestRotateOldBackups(t *testing.T) {
	tests := []struct {
		name      string
		stamps    []string
		retention int
		deleted   int
	}{
		{name: "retention disabled", stamps: []string{"2020-01-01-000000", "2020-01-02-000000", "2020-01-03-000000", "2020-01-04-000000"}, retention: 0, deleted: 0},
		{name: "keeps minimum even when old", stamps: []string{"2020-01-01-000000", "2020-01-02-000000", "2020-01-03-000000"}, retention: 7, deleted: 0},
		{name: "deletes old beyond minimum", stamps: []string{"2020-01-01-000000", "2020-01-02-000000", "2024-06-01-000000", "2024-06-02-000000", "2024-06-03-000000"}, retention: 30, deleted: 2},
		{name: "keeps recent beyond minimum", stamps: []string{"2024-06-01-000000", "2024-06-02-000000", "2024-06-03-000000", "2024-06-04-000000"}, retention: 30, deleted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			seedBackups(store, tt.stamps...)
			svc := NewBackupService(store, t.TempDir(), zerolog.Nop())
			svc.now = fixedClock(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))

			deleted, err := svc.RotateOldBackups(context.Background(), tt.retention)
			require.NoError(t, err)
			assert.Equal(t, tt.deleted, deleted)
			assert.Len(t, store.objects, len(tt.stamps)-tt.deleted)
		})
	}
}

func TestBackupJob(t *testing.T) {
	store := newMemoryStore()
	seedBackups(store, "2020-01-01-000000", "2020-01-02-000000", "2020-01-03-000000", "2020-01-04-000000")
	svc := NewBackupService(store, t.TempDir(), zerolog.Nop(), &fakeSnapshotter{name: "history", content: "h"})
	svc.now = fixedClock(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))

	job := NewBackupJob(svc, 30, zerolog.Nop())
	assert.Equal(t, "backup", job.Name())
	require.NoError(t, job.Run())

	// new backup plus the newest two seeded ones survive
	assert.Len(t, store.objects, 3)

	store.deleteErr = errors.New("denied")
	assert.NoError(t, job.Run(), "rotation failures do not fail the job")
}
