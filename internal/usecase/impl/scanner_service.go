package impl

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"lumen/config"
	deliverycontext "lumen/internal/delivery/context"
	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/domain/repository"
	"lumen/internal/domain/service"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// scannerService implements the ScannerUsecase interface. It reconciles a
// user's on-disk gallery directory into folder and media rows.
type scannerService struct {
	userRepo    repository.UserRepository
	folderRepo  repository.FolderRepository
	mediaRepo   repository.MediaRepository
	scanJobRepo repository.ScanJobRepository
	prober      service.MediaProber
	publisher   service.EventPublisher
	galleryRoot string
	hashContent bool
	maxDepth    int
	logger      *slog.Logger

	// One scan per user at a time, enforced in-process.
	locks sync.Map
}

// ScannerServiceParams holds dependencies for ScannerService, injected by Fx.
type ScannerServiceParams struct {
	fx.In

	UserRepo    repository.UserRepository
	FolderRepo  repository.FolderRepository
	MediaRepo   repository.MediaRepository
	ScanJobRepo repository.ScanJobRepository
	Prober      service.MediaProber
	Publisher   service.EventPublisher
	Config      *config.Config
	Logger      *slog.Logger
}

// NewScannerService is the constructor for scannerService.
func NewScannerService(params ScannerServiceParams) usecase.ScannerUsecase {
	return &scannerService{
		userRepo:    params.UserRepo,
		folderRepo:  params.FolderRepo,
		mediaRepo:   params.MediaRepo,
		scanJobRepo: params.ScanJobRepo,
		prober:      params.Prober,
		publisher:   params.Publisher,
		galleryRoot: params.Config.Gallery.Root,
		hashContent: params.Config.Scan.HashContent,
		maxDepth:    params.Config.Scan.MaxAncestorDepth,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *scannerService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ScanRoot launches a reconciliation run and returns its job ID immediately.
func (srv *scannerService) ScanRoot(ctx context.Context, userUUID uuid.UUID) (uuid.UUID, error) {
	user, err := srv.userRepo.FindByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return uuid.Nil, domainerrors.ErrUserNotFound
		}

		return uuid.Nil, errors.Wrap(err, "failed to resolve scan user")
	}

	lock := srv.userLock(user.ID)
	if !lock.TryLock() {
		return uuid.Nil, domainerrors.ErrScanInProgress
	}

	job := &entity.ScanJob{
		ID:        uuid.New(),
		UserID:    user.ID,
		State:     entity.ScanJobPending,
		StartedAt: time.Now(),
	}
	if err := srv.scanJobRepo.Create(ctx, job); err != nil {
		lock.Unlock()

		return uuid.Nil, err
	}

	// The run outlives the triggering request on purpose; its results land in
	// the scan_jobs row regardless of what happens to the caller.
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		defer lock.Unlock()
		srv.runScan(bgCtx, user, job)
	}()

	return job.ID, nil
}

// ScanRootSync runs a full reconciliation and blocks until it finishes.
func (srv *scannerService) ScanRootSync(ctx context.Context, userUUID uuid.UUID) (*usecase.ScanReport, error) {
	user, err := srv.userRepo.FindByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to resolve scan user")
	}

	lock := srv.userLock(user.ID)
	if !lock.TryLock() {
		return nil, domainerrors.ErrScanInProgress
	}
	defer lock.Unlock()

	job := &entity.ScanJob{
		ID:        uuid.New(),
		UserID:    user.ID,
		State:     entity.ScanJobPending,
		StartedAt: time.Now(),
	}
	if err := srv.scanJobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	srv.runScan(ctx, user, job)
	if job.State == entity.ScanJobFailed {
		msg := "scan failed"
		if job.Error != nil {
			msg = *job.Error
		}

		return nil, errors.New(msg)
	}

	return &usecase.ScanReport{
		JobID:      job.ID,
		FoldersNew: job.FoldersNew,
		MediaNew:   job.MediaNew,
		Skipped:    job.Skipped,
	}, nil
}

// JobStatus reports the state and counters of a reconciliation run.
func (srv *scannerService) JobStatus(ctx context.Context, jobID uuid.UUID) (*entity.ScanJob, error) {
	job, err := srv.scanJobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrScanJobNotFound) {
			return nil, domainerrors.ErrScanJobNotFound
		}

		return nil, errors.Wrap(err, "failed to find scan job")
	}

	return job, nil
}

func (srv *scannerService) userLock(userID int64) *sync.Mutex {
	lock, _ := srv.locks.LoadOrStore(userID, &sync.Mutex{})

	return lock.(*sync.Mutex)
}

// runScan drives one reconciliation: ensure the root directory, discover
// leaf-bearing directories, reconcile folders top-down, then media. A failure
// in one directory skips that directory and keeps going; only setup failures
// fail the whole run.
func (srv *scannerService) runScan(ctx context.Context, user *entity.User, job *entity.ScanJob) {
	logger := srv.log(ctx).With(slog.String("job_id", job.ID.String()), slog.Int64("user_id", user.ID))
	logger.Info("Scan started", slog.String("username", user.Username))

	job.State = entity.ScanJobRunning
	if err := srv.scanJobRepo.Update(ctx, job); err != nil {
		logger.Error("Failed to mark scan job running", slog.Any("error", err))
	}
	srv.publishEvent(ctx, job)

	root := filepath.Join(srv.galleryRoot, user.Username)
	err := srv.reconcile(ctx, logger, user, job, root)

	now := time.Now()
	job.FinishedAt = &now
	switch {
	case err != nil:
		msg := err.Error()
		job.Error = &msg
		job.State = entity.ScanJobFailed
		logger.Error("Scan failed", slog.Any("error", err))
	case job.Skipped > 0:
		job.State = entity.ScanJobPartial
		logger.Warn("Scan finished with skipped items",
			slog.Int("folders_new", job.FoldersNew),
			slog.Int("media_new", job.MediaNew),
			slog.Int("skipped", job.Skipped),
		)
	default:
		job.State = entity.ScanJobDone
		logger.Info("Scan finished",
			slog.Int("folders_new", job.FoldersNew),
			slog.Int("media_new", job.MediaNew),
		)
	}

	if err := srv.scanJobRepo.Update(ctx, job); err != nil {
		logger.Error("Failed to persist scan job result", slog.Any("error", err))
	}
	srv.publishEvent(ctx, job)
}

func (srv *scannerService) reconcile(ctx context.Context, logger *slog.Logger, user *entity.User, job *entity.ScanJob, root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrapf(err, "ensure gallery root %s", root)
	}

	dirs, err := discoverLeafDirs(root, srv.maxDepth)
	if err != nil {
		return err
	}

	// Shallow directories first, so every parent folder row exists before its
	// children are resolved.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) < strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, rel := range dirs {
		folder, err := srv.resolveFolderChain(ctx, user.ID, rel, job)
		if err != nil {
			if errors.Is(err, domainerrors.ErrFolderDepthExceeded) {
				logger.Warn("Skipping directory beyond depth bound", slog.String("dir", rel))
				job.Skipped++

				continue
			}

			return err
		}

		if err := srv.reconcileDirMedia(ctx, logger, user, job, root, rel, folder); err != nil {
			return err
		}
	}

	return nil
}

// resolveFolderChain finds or inserts every folder along the relative path,
// top-down, and returns the final folder. The first path segment becomes a
// root folder with no parent; the gallery root itself (".") maps to a nil
// folder, since root-level files carry no folder reference.
func (srv *scannerService) resolveFolderChain(ctx context.Context, ownerID int64, rel string, job *entity.ScanJob) (*entity.Folder, error) {
	if rel == "." {
		return nil, nil
	}

	components := strings.Split(rel, string(filepath.Separator))
	if len(components) > srv.maxDepth {
		return nil, domainerrors.ErrFolderDepthExceeded
	}

	var parent *entity.Folder
	for _, name := range components {
		var parentID *int64
		if parent != nil {
			parentID = &parent.ID
		}

		folder, created, err := srv.findOrCreateFolder(ctx, ownerID, parentID, name)
		if err != nil {
			return nil, err
		}
		if created {
			job.FoldersNew++
		}
		parent = folder
	}

	return parent, nil
}

// findOrCreateFolder implements find-or-insert against the (owner, parent,
// name) unique constraint. A concurrent insert loses the race cleanly: the
// constraint violation is answered with a second lookup.
func (srv *scannerService) findOrCreateFolder(ctx context.Context, ownerID int64, parentID *int64, name string) (*entity.Folder, bool, error) {
	folder, err := srv.folderRepo.FindByOwnerParentName(ctx, ownerID, parentID, name)
	if err == nil {
		return folder, false, nil
	}
	if !errors.Is(err, repository.ErrFolderNotFound) {
		return nil, false, errors.Wrap(err, "failed to find folder")
	}

	folder = &entity.Folder{
		OwnerID:  ownerID,
		ParentID: parentID,
		Name:     name,
	}
	err = srv.folderRepo.Create(ctx, folder)
	if err == nil {
		return folder, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		folder, err = srv.folderRepo.FindByOwnerParentName(ctx, ownerID, parentID, name)
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to find folder after duplicate insert")
		}

		return folder, false, nil
	}

	return nil, false, errors.Wrap(err, "failed to create folder")
}

// reconcileDirMedia inserts media rows for the files of one directory. A nil
// folder means the gallery root itself. Existing rows are left untouched, so
// re-scans are idempotent. Unreadable or undecodable files are skipped
// without failing the run; files outside the allow-list are ignored.
func (srv *scannerService) reconcileDirMedia(ctx context.Context, logger *slog.Logger, user *entity.User, job *entity.ScanJob, root string, rel string, folder *entity.Folder) error {
	var folderID *int64
	if folder != nil {
		folderID = &folder.ID
	}

	dir := filepath.Join(root, rel)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("Skipping unreadable directory", slog.String("dir", rel), slog.Any("error", err))
		job.Skipped++

		return nil
	}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || !dirEntry.Type().IsRegular() {
			continue
		}

		filename := dirEntry.Name()
		exists, err := srv.mediaRepo.ExistsByOwnerFolderFilename(ctx, user.ID, folderID, filename)
		if err != nil {
			return errors.Wrap(err, "failed to check media existence")
		}
		if exists {
			continue
		}

		path := filepath.Join(dir, filename)
		probe, err := srv.prober.Probe(path)
		if err != nil {
			logger.Warn("Skipping undecodable file", slog.String("file", filepath.Join(rel, filename)), slog.Any("error", err))
			job.Skipped++

			continue
		}
		if probe == nil {
			// Not on the media allow-list; ignored rather than skipped so a
			// stray README cannot degrade the run to partial.
			continue
		}

		media := &entity.Media{
			OwnerID:   user.ID,
			FolderID:  folderID,
			Filename:  filename,
			Width:     probe.Width,
			Height:    probe.Height,
			DateTaken: fileModTime(dirEntry),
		}
		if srv.hashContent {
			hash, err := srv.prober.HashFile(path)
			if err != nil {
				logger.Warn("Skipping unhashable file", slog.String("file", filepath.Join(rel, filename)), slog.Any("error", err))
				job.Skipped++

				continue
			}
			media.ContentHash = &hash
		}

		if err := srv.mediaRepo.Create(ctx, media); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// A concurrent writer got there first; the row exists, which
				// is all reconciliation asks for.
				continue
			}

			return errors.Wrap(err, "failed to create media")
		}
		job.MediaNew++
	}

	return nil
}

func (srv *scannerService) publishEvent(ctx context.Context, job *entity.ScanJob) {
	event := &service.ScanEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		JobID:      job.ID.String(),
		UserID:     job.UserID,
		State:      string(job.State),
		FoldersNew: job.FoldersNew,
		MediaNew:   job.MediaNew,
		Skipped:    job.Skipped,
	}
	if job.Error != nil {
		event.Error = *job.Error
	}

	if err := srv.publisher.PublishScanEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish scan event", slog.Any("error", err))
	}
}

// discoverLeafDirs walks the tree under root and returns the relative paths
// of every directory that directly contains at least one regular file. The
// root itself is included when it holds files.
func discoverLeafDirs(root string, maxDepth int) ([]string, error) {
	var dirs []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are reported by the media pass; discovery
			// just moves on.
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel != "." && strings.Count(rel, string(filepath.Separator))+1 > maxDepth {
			return filepath.SkipDir
		}

		dirEntries, readErr := os.ReadDir(path)
		if readErr != nil {
			return nil
		}
		for _, dirEntry := range dirEntries {
			if dirEntry.Type().IsRegular() {
				dirs = append(dirs, rel)

				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk gallery root %s", root)
	}

	return dirs, nil
}

func fileModTime(dirEntry os.DirEntry) time.Time {
	info, err := dirEntry.Info()
	if err != nil {
		return time.Now()
	}

	return info.ModTime()
}
