package impl

import (
	"context"
	"sort"
	"sync"
	"time"

	"lumen/internal/domain/entity"
	"lumen/internal/domain/repository"
	"lumen/internal/domain/service"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories. It
// enforces the same unique constraints the schema does, which lets the
// services exercise their find-or-insert and rotation logic for real.
type memStore struct {
	mu sync.Mutex

	users         []*entity.User
	refreshTokens []*entity.RefreshToken
	accessTokens  []*entity.AccessToken
	folders       []*entity.Folder
	media         []*entity.Media
	albums        []*entity.Album
	shareLinks    []*entity.AlbumShareLink
	scanJobs      []*entity.ScanJob
	albumMedia    map[int64][]int64

	nextID int64
}

func newMemStore() *memStore {
	return &memStore{albumMedia: map[int64][]int64{}}
}

func (s *memStore) id() int64 {
	s.nextID++

	return s.nextID
}

// --- users ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == id {
			copied := *u

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByUUID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.UUID == id {
			copied := *u

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			copied := *u

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			copied := *u

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.id()
	if user.UUID == uuid.Nil {
		user.UUID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.s.users = append(r.s.users, &copied)

	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, u := range r.s.users {
		if u.ID == user.ID {
			copied := *user
			r.s.users[i] = &copied

			return nil
		}
	}

	return repository.ErrUserNotFound
}

// --- refresh tokens ---

type memRefreshRepo struct{ s *memStore }

func (r *memRefreshRepo) Create(_ context.Context, token *entity.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = r.s.id()
	token.CreatedAt = time.Now()
	copied := *token
	r.s.refreshTokens = append(r.s.refreshTokens, &copied)

	return nil
}

func (r *memRefreshRepo) FindByToken(_ context.Context, token string) (*entity.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.refreshTokens {
		if t.Token == token {
			copied := *t

			return &copied, nil
		}
	}

	return nil, repository.ErrRefreshTokenNotFound
}

func (r *memRefreshRepo) FindByUserID(_ context.Context, userID int64) ([]*entity.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.RefreshToken
	for _, t := range r.s.refreshTokens {
		if t.UserID == userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

func (r *memRefreshRepo) DeleteByToken(_ context.Context, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, t := range r.s.refreshTokens {
		if t.Token == token {
			r.s.refreshTokens = append(r.s.refreshTokens[:i], r.s.refreshTokens[i+1:]...)

			return true, nil
		}
	}

	return false, nil
}

func (r *memRefreshRepo) DeleteByUserID(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.refreshTokens[:0]
	for _, t := range r.s.refreshTokens {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	r.s.refreshTokens = kept

	return nil
}

func (r *memRefreshRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var removed int64
	kept := r.s.refreshTokens[:0]
	for _, t := range r.s.refreshTokens {
		if t.ExpiresAt.Before(before) {
			removed++

			continue
		}
		kept = append(kept, t)
	}
	r.s.refreshTokens = kept

	return removed, nil
}

func (r *memRefreshRepo) CountActiveByUserID(_ context.Context, userID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	now := time.Now()
	for _, t := range r.s.refreshTokens {
		if t.UserID == userID && t.ExpiresAt.After(now) {
			count++
		}
	}

	return count, nil
}

// --- access tokens ---

type memAccessRepo struct{ s *memStore }

func (r *memAccessRepo) Create(_ context.Context, token *entity.AccessToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = r.s.id()
	token.CreatedAt = time.Now()
	copied := *token
	r.s.accessTokens = append(r.s.accessTokens, &copied)

	return nil
}

func (r *memAccessRepo) FindByToken(_ context.Context, token string) (*entity.AccessToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.accessTokens {
		if t.Token == token {
			copied := *t

			return &copied, nil
		}
	}

	return nil, repository.ErrAccessTokenNotFound
}

func (r *memAccessRepo) DeleteByRefreshTokenID(_ context.Context, refreshTokenID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.accessTokens[:0]
	for _, t := range r.s.accessTokens {
		if t.RefreshTokenID != refreshTokenID {
			kept = append(kept, t)
		}
	}
	r.s.accessTokens = kept

	return nil
}

func (r *memAccessRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var removed int64
	kept := r.s.accessTokens[:0]
	for _, t := range r.s.accessTokens {
		if t.ExpiresAt.Before(before) {
			removed++

			continue
		}
		kept = append(kept, t)
	}
	r.s.accessTokens = kept

	return removed, nil
}

// --- folders ---

type memFolderRepo struct{ s *memStore }

func (r *memFolderRepo) Create(_ context.Context, folder *entity.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.folders {
		if f.OwnerID == folder.OwnerID && f.Name == folder.Name && int64PtrEq(f.ParentID, folder.ParentID) {
			return gorm.ErrDuplicatedKey
		}
	}
	folder.ID = r.s.id()
	if folder.UUID == uuid.Nil {
		folder.UUID = uuid.New()
	}
	copied := *folder
	r.s.folders = append(r.s.folders, &copied)

	return nil
}

func (r *memFolderRepo) FindByID(_ context.Context, id int64) (*entity.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.folders {
		if f.ID == id {
			copied := *f

			return &copied, nil
		}
	}

	return nil, repository.ErrFolderNotFound
}

func (r *memFolderRepo) FindByOwnerParentName(_ context.Context, ownerID int64, parentID *int64, name string) (*entity.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.folders {
		if f.OwnerID == ownerID && f.Name == name && int64PtrEq(f.ParentID, parentID) {
			copied := *f

			return &copied, nil
		}
	}

	return nil, repository.ErrFolderNotFound
}

func (r *memFolderRepo) FindByOwnerID(_ context.Context, ownerID int64) ([]*entity.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Folder
	for _, f := range r.s.folders {
		if f.OwnerID == ownerID {
			copied := *f
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *memFolderRepo) FindChildren(_ context.Context, ownerID int64, parentID int64) ([]*entity.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Folder
	for _, f := range r.s.folders {
		if f.OwnerID == ownerID && f.ParentID != nil && *f.ParentID == parentID {
			copied := *f
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

// --- media ---

type memMediaRepo struct{ s *memStore }

func (r *memMediaRepo) Create(_ context.Context, media *entity.Media) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.media {
		if m.OwnerID == media.OwnerID && int64PtrEq(m.FolderID, media.FolderID) && m.Filename == media.Filename {
			return gorm.ErrDuplicatedKey
		}
	}
	media.ID = r.s.id()
	if media.UUID == uuid.Nil {
		media.UUID = uuid.New()
	}
	copied := *media
	r.s.media = append(r.s.media, &copied)

	return nil
}

func (r *memMediaRepo) FindByID(_ context.Context, id int64) (*entity.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.media {
		if m.ID == id {
			copied := *m

			return &copied, nil
		}
	}

	return nil, repository.ErrMediaNotFound
}

func (r *memMediaRepo) FindByFolderID(_ context.Context, ownerID int64, folderID int64) ([]*entity.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Media
	for _, m := range r.s.media {
		if m.OwnerID == ownerID && m.FolderID != nil && *m.FolderID == folderID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })

	return out, nil
}

func (r *memMediaRepo) FindByAlbumID(_ context.Context, albumID int64) ([]*entity.Media, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Media
	for _, id := range r.s.albumMedia[albumID] {
		for _, m := range r.s.media {
			if m.ID == id {
				copied := *m
				out = append(out, &copied)
			}
		}
	}

	return out, nil
}

func (r *memMediaRepo) ExistsByOwnerFolderFilename(_ context.Context, ownerID int64, folderID *int64, filename string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.media {
		if m.OwnerID == ownerID && int64PtrEq(m.FolderID, folderID) && m.Filename == filename {
			return true, nil
		}
	}

	return false, nil
}

// --- albums and share links ---

type memAlbumRepo struct{ s *memStore }

func (r *memAlbumRepo) Create(_ context.Context, album *entity.Album) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	album.ID = r.s.id()
	if album.UUID == uuid.Nil {
		album.UUID = uuid.New()
	}
	album.CreatedAt = time.Now()
	copied := *album
	r.s.albums = append(r.s.albums, &copied)

	return nil
}

func (r *memAlbumRepo) FindByID(_ context.Context, id int64) (*entity.Album, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.albums {
		if a.ID == id {
			copied := *a

			return &copied, nil
		}
	}

	return nil, repository.ErrAlbumNotFound
}

func (r *memAlbumRepo) FindByOwnerID(_ context.Context, ownerID int64) ([]*entity.Album, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Album
	for _, a := range r.s.albums {
		if a.OwnerID == ownerID {
			copied := *a
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (r *memAlbumRepo) AddMedia(_ context.Context, albumID int64, mediaID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.albumMedia[albumID] {
		if id == mediaID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.albumMedia[albumID] = append(r.s.albumMedia[albumID], mediaID)

	return nil
}

type memShareLinkRepo struct{ s *memStore }

func (r *memShareLinkRepo) Create(_ context.Context, link *entity.AlbumShareLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	link.ID = r.s.id()
	if link.UUID == uuid.Nil {
		link.UUID = uuid.New()
	}
	copied := *link
	r.s.shareLinks = append(r.s.shareLinks, &copied)

	return nil
}

func (r *memShareLinkRepo) FindByUUID(_ context.Context, id uuid.UUID) (*entity.AlbumShareLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.shareLinks {
		if l.UUID == id {
			copied := *l

			return &copied, nil
		}
	}

	return nil, repository.ErrShareLinkNotFound
}

func (r *memShareLinkRepo) FindByAlbumID(_ context.Context, albumID int64) ([]*entity.AlbumShareLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.AlbumShareLink
	for _, l := range r.s.shareLinks {
		if l.AlbumID == albumID {
			copied := *l
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (r *memShareLinkRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.shareLinks {
		if l.ID == id {
			r.s.shareLinks = append(r.s.shareLinks[:i], r.s.shareLinks[i+1:]...)

			return nil
		}
	}

	return nil
}

// --- scan jobs ---

type memScanJobRepo struct{ s *memStore }

func (r *memScanJobRepo) Create(_ context.Context, job *entity.ScanJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *job
	r.s.scanJobs = append(r.s.scanJobs, &copied)

	return nil
}

func (r *memScanJobRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.ScanJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, j := range r.s.scanJobs {
		if j.ID == id {
			copied := *j

			return &copied, nil
		}
	}

	return nil, repository.ErrScanJobNotFound
}

func (r *memScanJobRepo) FindLatestByUserID(_ context.Context, userID int64) (*entity.ScanJob, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *entity.ScanJob
	for _, j := range r.s.scanJobs {
		if j.UserID == userID && (latest == nil || j.StartedAt.After(latest.StartedAt)) {
			latest = j
		}
	}
	if latest == nil {
		return nil, repository.ErrScanJobNotFound
	}
	copied := *latest

	return &copied, nil
}

func (r *memScanJobRepo) Update(_ context.Context, job *entity.ScanJob) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, j := range r.s.scanJobs {
		if j.ID == job.ID {
			copied := *job
			r.s.scanJobs[i] = &copied

			return nil
		}
	}

	return repository.ErrScanJobNotFound
}

// --- transaction manager ---

// memTxManager satisfies TransactionManager without real transactions; the
// callback just runs against the same in-memory store.
type memTxManager struct{ s *memStore }

func (m *memTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(&memRepoFactory{s: m.s})
}

type memRepoFactory struct{ s *memStore }

func (f *memRepoFactory) NewUserRepository() repository.UserRepository {
	return &memUserRepo{s: f.s}
}

func (f *memRepoFactory) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return &memRefreshRepo{s: f.s}
}

func (f *memRepoFactory) NewAccessTokenRepository() repository.AccessTokenRepository {
	return &memAccessRepo{s: f.s}
}

func (f *memRepoFactory) NewFolderRepository() repository.FolderRepository {
	return &memFolderRepo{s: f.s}
}

func (f *memRepoFactory) NewMediaRepository() repository.MediaRepository {
	return &memMediaRepo{s: f.s}
}

// --- stateless fakes ---

// plainHasher marks hashes recognizably instead of running bcrypt, keeping
// the tests fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

// capturingPublisher records every published scan event.
type capturingPublisher struct {
	mu     sync.Mutex
	events []service.ScanEvent
}

func (p *capturingPublisher) PublishScanEvent(_ context.Context, event *service.ScanEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)

	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) states() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.State)
	}

	return out
}
