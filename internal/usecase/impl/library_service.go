package impl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

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

// libraryService implements the LibraryUsecase interface.
type libraryService struct {
	userRepo      repository.UserRepository
	folderRepo    repository.FolderRepository
	mediaRepo     repository.MediaRepository
	albumRepo     repository.AlbumRepository
	shareLinkRepo repository.ShareLinkRepository
	hasher        service.PasswordHasher
	qrService     service.QRCodeService
	galleryRoot   string
	maxDepth      int
	shareBaseURL  string
	logger        *slog.Logger
}

// LibraryServiceParams holds dependencies for LibraryService, injected by Fx.
type LibraryServiceParams struct {
	fx.In

	UserRepo      repository.UserRepository
	FolderRepo    repository.FolderRepository
	MediaRepo     repository.MediaRepository
	AlbumRepo     repository.AlbumRepository
	ShareLinkRepo repository.ShareLinkRepository
	Hasher        service.PasswordHasher
	QRService     service.QRCodeService
	Config        *config.Config
	Logger        *slog.Logger
}

// NewLibraryService is the constructor for libraryService.
func NewLibraryService(params LibraryServiceParams) usecase.LibraryUsecase {
	baseURL := ""
	if params.Config.QRCode != nil {
		baseURL = params.Config.QRCode.BaseURL
	}

	return &libraryService{
		userRepo:      params.UserRepo,
		folderRepo:    params.FolderRepo,
		mediaRepo:     params.MediaRepo,
		albumRepo:     params.AlbumRepo,
		shareLinkRepo: params.ShareLinkRepo,
		hasher:        params.Hasher,
		qrService:     params.QRService,
		galleryRoot:   params.Config.Gallery.Root,
		maxDepth:      params.Config.Scan.MaxAncestorDepth,
		shareBaseURL:  baseURL,
		logger:        params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *libraryService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Folders lists a user's folders, rooted or under a given parent.
func (srv *libraryService) Folders(ctx context.Context, ownerID int64, parentID *int64) ([]*entity.Folder, error) {
	if parentID == nil {
		folders, err := srv.folderRepo.FindByOwnerID(ctx, ownerID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list folders")
		}

		roots := make([]*entity.Folder, 0, len(folders))
		for _, folder := range folders {
			if folder.IsRoot() {
				roots = append(roots, folder)
			}
		}

		return roots, nil
	}

	parent, err := srv.folderRepo.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, repository.ErrFolderNotFound) {
			return nil, domainerrors.ErrFolderNotFound
		}

		return nil, errors.Wrap(err, "failed to find parent folder")
	}
	if parent.OwnerID != ownerID {
		return nil, domainerrors.ErrForbidden
	}

	children, err := srv.folderRepo.FindChildren(ctx, ownerID, parent.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list child folders")
	}

	return children, nil
}

// FolderMedia lists the media records inside a folder.
func (srv *libraryService) FolderMedia(ctx context.Context, ownerID int64, folderID int64) ([]*entity.Media, error) {
	folder, err := srv.folderRepo.FindByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, repository.ErrFolderNotFound) {
			return nil, domainerrors.ErrFolderNotFound
		}

		return nil, errors.Wrap(err, "failed to find folder")
	}
	if folder.OwnerID != ownerID {
		return nil, domainerrors.ErrForbidden
	}

	media, err := srv.mediaRepo.FindByFolderID(ctx, ownerID, folderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list folder media")
	}

	return media, nil
}

// MediaPath resolves a media record to its absolute on-disk path by walking
// the folder chain up to the gallery root. Account identities may only reach
// their own media; share grants may only reach media in the shared album.
func (srv *libraryService) MediaPath(ctx context.Context, identity *usecase.Identity, mediaID int64) (string, error) {
	media, err := srv.mediaRepo.FindByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return "", domainerrors.ErrMediaNotFound
		}

		return "", errors.Wrap(err, "failed to find media")
	}

	if err := srv.authorizeMedia(ctx, identity, media); err != nil {
		return "", err
	}

	owner, err := srv.userRepo.FindByID(ctx, media.OwnerID)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve media owner")
	}

	relDir, err := srv.folderPath(ctx, media.OwnerID, media.FolderID)
	if err != nil {
		return "", err
	}

	return filepath.Join(srv.galleryRoot, owner.Username, relDir, media.Filename), nil
}

// folderPath walks parent pointers from the folder up to a root folder,
// bounded so a corrupted chain (a cycle or runaway nesting) cannot loop
// forever. A nil folderID names the gallery root and resolves to an empty
// path.
func (srv *libraryService) folderPath(ctx context.Context, ownerID int64, folderID *int64) (string, error) {
	var components []string

	currentID := folderID
	for depth := 0; currentID != nil; depth++ {
		if depth >= srv.maxDepth {
			srv.log(ctx).Error("Folder chain exceeds depth bound", slog.Int64("folder_id", *folderID), slog.Int("max_depth", srv.maxDepth))

			return "", domainerrors.ErrFolderDepthExceeded
		}

		folder, err := srv.folderRepo.FindByID(ctx, *currentID)
		if err != nil {
			return "", errors.Wrap(err, "failed to walk folder chain")
		}
		if folder.OwnerID != ownerID {
			return "", domainerrors.ErrForbidden
		}

		components = append([]string{folder.Name}, components...)
		currentID = folder.ParentID
	}

	return filepath.Join(components...), nil
}

func (srv *libraryService) authorizeMedia(ctx context.Context, identity *usecase.Identity, media *entity.Media) error {
	switch {
	case identity == nil:
		return domainerrors.ErrForbidden
	case identity.User != nil:
		if identity.User.ID != media.OwnerID {
			return domainerrors.ErrForbidden
		}

		return nil
	case identity.Share != nil:
		albumMedia, err := srv.mediaRepo.FindByAlbumID(ctx, identity.Share.AlbumID)
		if err != nil {
			return errors.Wrap(err, "failed to list album media")
		}
		for _, m := range albumMedia {
			if m.ID == media.ID {
				return nil
			}
		}

		return domainerrors.ErrForbidden
	default:
		return domainerrors.ErrForbidden
	}
}

// CreateAlbum creates an empty album owned by the user.
func (srv *libraryService) CreateAlbum(ctx context.Context, ownerID int64, name string, description *string) (*entity.Album, error) {
	album := &entity.Album{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
	}
	if err := srv.albumRepo.Create(ctx, album); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Album created", slog.Int64("album_id", album.ID), slog.Int64("owner_id", ownerID))

	return album, nil
}

// AlbumAddMedia attaches media records to an album. Both the album and every
// media record must belong to the caller; media already in the album is
// passed over so the operation can be retried safely.
func (srv *libraryService) AlbumAddMedia(ctx context.Context, ownerID int64, albumID int64, mediaIDs []int64) error {
	album, err := srv.albumRepo.FindByID(ctx, albumID)
	if err != nil {
		if errors.Is(err, repository.ErrAlbumNotFound) {
			return domainerrors.ErrAlbumNotFound
		}

		return errors.Wrap(err, "failed to find album")
	}
	if album.OwnerID != ownerID {
		return domainerrors.ErrForbidden
	}

	added := 0
	for _, mediaID := range mediaIDs {
		media, err := srv.mediaRepo.FindByID(ctx, mediaID)
		if err != nil {
			if errors.Is(err, repository.ErrMediaNotFound) {
				return domainerrors.ErrMediaNotFound
			}

			return errors.Wrap(err, "failed to find media")
		}
		if media.OwnerID != ownerID {
			return domainerrors.ErrForbidden
		}

		if err := srv.albumRepo.AddMedia(ctx, album.ID, media.ID); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}

			return errors.Wrap(err, "failed to attach media to album")
		}
		added++
	}

	srv.log(ctx).Info("Album media attached", slog.Int64("album_id", album.ID), slog.Int("added", added))

	return nil
}

// CreateShareLink attaches a share link to an album the user owns.
func (srv *libraryService) CreateShareLink(ctx context.Context, input usecase.CreateShareLinkInput) (*entity.AlbumShareLink, error) {
	album, err := srv.albumRepo.FindByID(ctx, input.AlbumID)
	if err != nil {
		if errors.Is(err, repository.ErrAlbumNotFound) {
			return nil, domainerrors.ErrAlbumNotFound
		}

		return nil, errors.Wrap(err, "failed to find album")
	}
	if album.OwnerID != input.OwnerID {
		return nil, domainerrors.ErrForbidden
	}

	link := &entity.AlbumShareLink{
		AlbumID:   album.ID,
		ExpiresAt: input.ExpiresAt,
	}
	if input.Password != "" {
		hash, err := srv.hasher.Hash(input.Password)
		if err != nil {
			return nil, domainerrors.ErrPasswordHashFailed
		}
		link.PasswordHash = &hash
	}

	if err := srv.shareLinkRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Share link created", slog.Int64("album_id", album.ID))

	return link, nil
}

// ShareLinkQR renders a share link's public URL as a PNG QR code.
func (srv *libraryService) ShareLinkQR(ctx context.Context, linkID uuid.UUID) ([]byte, error) {
	link, err := srv.shareLinkRepo.FindByUUID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrShareLinkNotFound) {
			return nil, domainerrors.ErrShareLinkInvalid
		}

		return nil, errors.Wrap(err, "failed to find share link")
	}

	url := fmt.Sprintf("%s/share-links/%s", srv.shareBaseURL, link.UUID)

	return srv.qrService.GenerateShareLinkQR(url)
}
