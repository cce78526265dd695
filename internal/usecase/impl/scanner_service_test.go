package impl

import (
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lumen/config"
	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	inframedia "lumen/internal/infra/media"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scannerFixture struct {
	service   usecase.ScannerUsecase
	store     *memStore
	publisher *capturingPublisher
	root      string
	user      *entity.User
}

func newScannerFixture(t *testing.T, maxDepth int) *scannerFixture {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{}
	cfg.Gallery = &config.GalleryConfig{Root: root}
	cfg.Scan = &config.ScanConfig{HashContent: true, MaxAncestorDepth: maxDepth}

	store := newMemStore()
	user := &entity.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, (&memUserRepo{s: store}).Create(context.Background(), user))

	publisher := &capturingPublisher{}
	svc := NewScannerService(ScannerServiceParams{
		UserRepo:    &memUserRepo{s: store},
		FolderRepo:  &memFolderRepo{s: store},
		MediaRepo:   &memMediaRepo{s: store},
		ScanJobRepo: &memScanJobRepo{s: store},
		Prober:      inframedia.NewProber(),
		Publisher:   publisher,
		Config:      cfg,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &scannerFixture{service: svc, store: store, publisher: publisher, root: root, user: user}
}

// writePNG drops a decodable PNG of the given dimensions at path.
func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
}

func (f *scannerFixture) userDir(parts ...string) string {
	return filepath.Join(append([]string{f.root, f.user.Username}, parts...)...)
}

func TestScannerService_ScanRootSync(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	writePNG(t, f.userDir("cover.png"), 4, 3)
	writePNG(t, f.userDir("2024", "summer", "beach.png"), 8, 6)
	writePNG(t, f.userDir("2024", "summer", "sunset.png"), 8, 6)

	report, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)

	// 2024 and 2024/summer folders; three media rows; nothing skipped. The
	// root-level cover.png lands without any folder row.
	assert.Equal(t, 2, report.FoldersNew)
	assert.Equal(t, 3, report.MediaNew)
	assert.Equal(t, 0, report.Skipped)

	year, err := (&memFolderRepo{s: f.store}).FindByOwnerParentName(ctx, f.user.ID, nil, "2024")
	require.NoError(t, err)
	assert.Nil(t, year.ParentID)

	job, err := f.service.JobStatus(ctx, report.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScanJobDone, job.State)
	require.NotNil(t, job.FinishedAt)

	assert.Equal(t, []string{"running", "done"}, f.publisher.states())

	// Dimensions and content hash come from the file bytes; only the
	// root-level file has no folder reference.
	for _, m := range f.store.media {
		assert.NotZero(t, m.Width)
		assert.NotZero(t, m.Height)
		require.NotNil(t, m.ContentHash)
		assert.Len(t, *m.ContentHash, 128)
		if m.Filename == "cover.png" {
			assert.Nil(t, m.FolderID)
		} else {
			assert.NotNil(t, m.FolderID)
		}
	}
}

func TestScannerService_RescanIsIdempotent(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	writePNG(t, f.userDir("cover.png"), 4, 3)
	writePNG(t, f.userDir("trips", "rome.png"), 4, 3)

	first, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FoldersNew)
	assert.Equal(t, 2, first.MediaNew)

	second, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FoldersNew)
	assert.Equal(t, 0, second.MediaNew)
	assert.Len(t, f.store.media, 2)

	// A file added between runs is picked up without disturbing the rest.
	writePNG(t, f.userDir("trips", "oslo.png"), 4, 3)
	third, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)
	assert.Equal(t, 0, third.FoldersNew)
	assert.Equal(t, 1, third.MediaNew)
}

func TestScannerService_NonMediaFilesAreIgnored(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	writePNG(t, f.userDir("cover.png"), 4, 3)
	require.NoError(t, os.WriteFile(f.userDir("notes.txt"), []byte("not a photo"), 0o644))

	// Files outside the allow-list are passed over without degrading the run.
	report, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MediaNew)
	assert.Equal(t, 0, report.Skipped)

	job, err := f.service.JobStatus(ctx, report.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScanJobDone, job.State)
	assert.Equal(t, []string{"running", "done"}, f.publisher.states())
}

func TestScannerService_UndecodableMediaCountsSkipped(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	writePNG(t, f.userDir("cover.png"), 4, 3)
	// PNG magic bytes with a truncated body: sniffs as an image, fails to
	// decode.
	require.NoError(t, os.WriteFile(f.userDir("broken.png"), []byte("\x89PNG\r\n\x1a\n\x00\x00"), 0o644))

	report, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MediaNew)
	assert.Equal(t, 1, report.Skipped)

	job, err := f.service.JobStatus(ctx, report.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScanJobPartial, job.State)
	assert.Equal(t, []string{"running", "partial"}, f.publisher.states())
}

func TestScannerService_DepthBoundPrunesDeepDirectories(t *testing.T) {
	// The bound counts folder ancestors, so two directory levels fit.
	f := newScannerFixture(t, 2)
	ctx := context.Background()

	writePNG(t, f.userDir("near.png"), 4, 3)
	writePNG(t, f.userDir("a", "ok.png"), 4, 3)
	writePNG(t, f.userDir("a", "b", "also-ok.png"), 4, 3)
	writePNG(t, f.userDir("a", "b", "c", "too-deep.png"), 4, 3)

	report, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)

	// The in-bound files land; the out-of-bound subtree is never entered.
	assert.Equal(t, 3, report.MediaNew)
	assert.Len(t, f.store.media, 3)
	for _, m := range f.store.media {
		assert.NotEqual(t, "too-deep.png", m.Filename)
	}
}

func TestScannerService_EmptyRootCreatedOnFirstScan(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	report, err := f.service.ScanRootSync(ctx, f.user.UUID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FoldersNew)
	assert.Equal(t, 0, report.MediaNew)

	// The per-user directory now exists for uploads to land in.
	info, err := os.Stat(f.userDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestScannerService_ScanRootRunsInBackground(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	writePNG(t, f.userDir("cover.png"), 4, 3)

	jobID, err := f.service.ScanRoot(ctx, f.user.UUID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, jobID)

	require.Eventually(t, func() bool {
		job, err := f.service.JobStatus(ctx, jobID)

		return err == nil && job.State == entity.ScanJobDone
	}, 5*time.Second, 10*time.Millisecond)

	job, err := f.service.JobStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, 1, job.MediaNew)
}

func TestScannerService_RejectsConcurrentScan(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	srv, ok := f.service.(*scannerService)
	require.True(t, ok)

	// Simulate a scan in flight by holding the user's lock.
	lock := srv.userLock(f.user.ID)
	lock.Lock()
	defer lock.Unlock()

	_, err := f.service.ScanRoot(ctx, f.user.UUID)
	assert.ErrorIs(t, err, domainerrors.ErrScanInProgress)
	_, err = f.service.ScanRootSync(ctx, f.user.UUID)
	assert.ErrorIs(t, err, domainerrors.ErrScanInProgress)
}

func TestScannerService_UnknownUser(t *testing.T) {
	f := newScannerFixture(t, 128)
	ctx := context.Background()

	_, err := f.service.ScanRoot(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	_, err = f.service.JobStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrScanJobNotFound)
}
