package impl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"lumen/config"
	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	infraqrcode "lumen/internal/infra/qrcode"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type libraryFixture struct {
	service usecase.LibraryUsecase
	store   *memStore
	root    string
}

func newLibraryFixture(t *testing.T) *libraryFixture {
	t.Helper()

	root := t.TempDir()
	cfg := &config.Config{}
	cfg.Gallery = &config.GalleryConfig{Root: root}
	cfg.Scan = &config.ScanConfig{MaxAncestorDepth: 128}
	cfg.QRCode = &config.QRCodeConfig{Size: 256, ErrorCorrectionLevel: "medium", BaseURL: "https://gallery.example.com"}

	store := newMemStore()
	svc := NewLibraryService(LibraryServiceParams{
		UserRepo:      &memUserRepo{s: store},
		FolderRepo:    &memFolderRepo{s: store},
		MediaRepo:     &memMediaRepo{s: store},
		AlbumRepo:     &memAlbumRepo{s: store},
		ShareLinkRepo: &memShareLinkRepo{s: store},
		Hasher:        plainHasher{},
		QRService:     infraqrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel),
		Config:        cfg,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &libraryFixture{service: svc, store: store, root: root}
}

func (f *libraryFixture) seedUser(t *testing.T, username string) *entity.User {
	t.Helper()

	user := &entity.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, (&memUserRepo{s: f.store}).Create(context.Background(), user))

	return user
}

// seedFolder creates a folder; a nil parent makes it a root folder.
func (f *libraryFixture) seedFolder(t *testing.T, ownerID int64, parent *entity.Folder, name string) *entity.Folder {
	t.Helper()

	folder := &entity.Folder{OwnerID: ownerID, Name: name}
	if parent != nil {
		folder.ParentID = &parent.ID
	}
	require.NoError(t, (&memFolderRepo{s: f.store}).Create(context.Background(), folder))

	return folder
}

// seedMedia creates a media row; a nil folder places it at the gallery root.
func (f *libraryFixture) seedMedia(t *testing.T, ownerID int64, folder *entity.Folder, filename string) *entity.Media {
	t.Helper()

	media := &entity.Media{OwnerID: ownerID, Filename: filename, DateTaken: time.Now()}
	if folder != nil {
		media.FolderID = &folder.ID
	}
	require.NoError(t, (&memMediaRepo{s: f.store}).Create(context.Background(), media))

	return media
}

func TestLibraryService_Folders(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	alice := f.seedUser(t, "alice")
	trips := f.seedFolder(t, alice.ID, nil, "trips")
	f.seedFolder(t, alice.ID, trips, "rome")
	bob := f.seedUser(t, "bob")

	roots, err := f.service.Folders(ctx, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, trips.ID, roots[0].ID)

	children, err := f.service.Folders(ctx, alice.ID, &trips.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "rome", children[0].Name)

	// Another user's folder tree is off limits.
	_, err = f.service.Folders(ctx, bob.ID, &trips.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	missing := int64(9999)
	_, err = f.service.Folders(ctx, alice.ID, &missing)
	assert.ErrorIs(t, err, domainerrors.ErrFolderNotFound)
}

func TestLibraryService_FolderMedia(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	alice := f.seedUser(t, "alice")
	shots := f.seedFolder(t, alice.ID, nil, "shots")
	f.seedMedia(t, alice.ID, shots, "cover.png")
	f.seedMedia(t, alice.ID, shots, "beach.png")
	bob := f.seedUser(t, "bob")

	media, err := f.service.FolderMedia(ctx, alice.ID, shots.ID)
	require.NoError(t, err)
	assert.Len(t, media, 2)

	_, err = f.service.FolderMedia(ctx, bob.ID, shots.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLibraryService_MediaPath(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	alice := f.seedUser(t, "alice")
	trips := f.seedFolder(t, alice.ID, nil, "trips")
	rome := f.seedFolder(t, alice.ID, trips, "rome")
	media := f.seedMedia(t, alice.ID, rome, "colosseum.png")

	identity := &usecase.Identity{User: alice}
	path, err := f.service.MediaPath(ctx, identity, media.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "alice", "trips", "rome", "colosseum.png"), path)

	// Media directly under the gallery root resolves without a subdirectory.
	cover := f.seedMedia(t, alice.ID, nil, "cover.png")
	path, err = f.service.MediaPath(ctx, identity, cover.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "alice", "cover.png"), path)

	_, err = f.service.MediaPath(ctx, identity, 9999)
	assert.ErrorIs(t, err, domainerrors.ErrMediaNotFound)
}

func TestLibraryService_MediaPathAuthorization(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	shared := f.seedMedia(t, alice.ID, nil, "shared.png")
	private := f.seedMedia(t, alice.ID, nil, "private.png")

	// Bob cannot reach Alice's media with his account.
	_, err := f.service.MediaPath(ctx, &usecase.Identity{User: bob}, shared.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	// A share grant reaches exactly the album's media.
	album, err := f.service.CreateAlbum(ctx, alice.ID, "holiday", nil)
	require.NoError(t, err)
	require.NoError(t, f.service.AlbumAddMedia(ctx, alice.ID, album.ID, []int64{shared.ID}))

	grant := &entity.ShareLinkGrant{LinkUUID: uuid.New(), AlbumID: album.ID}
	path, err := f.service.MediaPath(ctx, &usecase.Identity{Share: grant}, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "alice", "shared.png"), path)

	_, err = f.service.MediaPath(ctx, &usecase.Identity{Share: grant}, private.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	// No identity at all never resolves.
	_, err = f.service.MediaPath(ctx, nil, shared.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = f.service.MediaPath(ctx, &usecase.Identity{}, shared.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLibraryService_AlbumAddMedia(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	mine := f.seedMedia(t, alice.ID, nil, "mine.png")
	theirs := f.seedMedia(t, bob.ID, nil, "theirs.png")
	album, err := f.service.CreateAlbum(ctx, alice.ID, "holiday", nil)
	require.NoError(t, err)

	require.NoError(t, f.service.AlbumAddMedia(ctx, alice.ID, album.ID, []int64{mine.ID}))
	// Re-attaching is a no-op, not an error.
	require.NoError(t, f.service.AlbumAddMedia(ctx, alice.ID, album.ID, []int64{mine.ID}))
	assert.Equal(t, []int64{mine.ID}, f.store.albumMedia[album.ID])

	// Only the caller's own media and albums participate.
	err = f.service.AlbumAddMedia(ctx, alice.ID, album.ID, []int64{theirs.ID})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	err = f.service.AlbumAddMedia(ctx, bob.ID, album.ID, []int64{theirs.ID})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	err = f.service.AlbumAddMedia(ctx, alice.ID, 9999, []int64{mine.ID})
	assert.ErrorIs(t, err, domainerrors.ErrAlbumNotFound)
	err = f.service.AlbumAddMedia(ctx, alice.ID, album.ID, []int64{9999})
	assert.ErrorIs(t, err, domainerrors.ErrMediaNotFound)
}

func TestLibraryService_CreateShareLink(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	album, err := f.service.CreateAlbum(ctx, alice.ID, "holiday", nil)
	require.NoError(t, err)

	expiry := time.Now().Add(24 * time.Hour)
	link, err := f.service.CreateShareLink(ctx, usecase.CreateShareLinkInput{
		OwnerID:   alice.ID,
		AlbumID:   album.ID,
		Password:  "secret",
		ExpiresAt: &expiry,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, link.UUID)
	require.NotNil(t, link.PasswordHash)
	assert.Equal(t, "hashed:secret", *link.PasswordHash)

	open, err := f.service.CreateShareLink(ctx, usecase.CreateShareLinkInput{OwnerID: alice.ID, AlbumID: album.ID})
	require.NoError(t, err)
	assert.Nil(t, open.PasswordHash)
	assert.Nil(t, open.ExpiresAt)

	// Only the album owner may share it.
	_, err = f.service.CreateShareLink(ctx, usecase.CreateShareLinkInput{OwnerID: bob.ID, AlbumID: album.ID})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = f.service.CreateShareLink(ctx, usecase.CreateShareLinkInput{OwnerID: alice.ID, AlbumID: 9999})
	assert.ErrorIs(t, err, domainerrors.ErrAlbumNotFound)
}

func TestLibraryService_ShareLinkQR(t *testing.T) {
	f := newLibraryFixture(t)
	ctx := context.Background()

	alice := f.seedUser(t, "alice")
	album, err := f.service.CreateAlbum(ctx, alice.ID, "holiday", nil)
	require.NoError(t, err)
	link, err := f.service.CreateShareLink(ctx, usecase.CreateShareLinkInput{OwnerID: alice.ID, AlbumID: album.ID})
	require.NoError(t, err)

	img, err := f.service.ShareLinkQR(ctx, link.UUID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	_, err = f.service.ShareLinkQR(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrShareLinkInvalid)
}
