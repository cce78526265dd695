package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lumen/internal/delivery/http/middleware"
	"lumen/internal/delivery/http/response"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// LibraryHandler holds dependencies for gallery browsing handlers.
type LibraryHandler struct {
	uc     usecase.LibraryUsecase
	logger *slog.Logger
}

// NewLibraryHandler is the constructor for LibraryHandler, injected by Fx.
func NewLibraryHandler(uc usecase.LibraryUsecase, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{uc: uc, logger: logger}
}

// ListFolders lists the caller's root folders, or the children of ?parent=.
func (h *LibraryHandler) ListFolders(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.User == nil {
		return response.Unauthorized(c, "INVALID_TOKEN", "Account credentials required")
	}

	var parentID *int64
	if raw := c.QueryParam("parent"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid parent folder ID")
		}
		parentID = &id
	}

	folders, err := h.uc.Folders(c.Request().Context(), identity.User.ID, parentID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newFolderResponses(folders), "Folders retrieved successfully")
}

// FolderMedia lists the media inside one of the caller's folders.
func (h *LibraryHandler) FolderMedia(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.User == nil {
		return response.Unauthorized(c, "INVALID_TOKEN", "Account credentials required")
	}

	folderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid folder ID")
	}

	media, err := h.uc.FolderMedia(c.Request().Context(), identity.User.ID, folderID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newMediaResponses(media), "Media retrieved successfully")
}

// MediaFile streams a media file. It accepts either an account identity or a
// share link grant; authorization happens in the usecase against the media's
// owner or the shared album.
func (h *LibraryHandler) MediaFile(c echo.Context) error {
	mediaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid media ID")
	}

	path, err := h.uc.MediaPath(c.Request().Context(), middleware.IdentityFromContext(c), mediaID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.File(path)
}

type createAlbumRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

// CreateAlbum creates an empty album owned by the caller.
func (h *LibraryHandler) CreateAlbum(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.User == nil {
		return response.Unauthorized(c, "INVALID_TOKEN", "Account credentials required")
	}

	var req createAlbumRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid album input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	album, err := h.uc.CreateAlbum(c.Request().Context(), identity.User.ID, req.Name, req.Description)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, album, "Album created successfully")
}

type albumAddMediaRequest struct {
	MediaIDs []int64 `json:"mediaIds" validate:"required,min=1"`
}

// AlbumAddMedia attaches the caller's media to one of their albums.
func (h *LibraryHandler) AlbumAddMedia(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.User == nil {
		return response.Unauthorized(c, "INVALID_TOKEN", "Account credentials required")
	}

	albumID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid album ID")
	}

	var req albumAddMediaRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid album media input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.uc.AlbumAddMedia(c.Request().Context(), identity.User.ID, albumID, req.MediaIDs); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Media added to album")
}

type createShareLinkRequest struct {
	Password  string     `json:"password"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// CreateShareLink attaches a share link to one of the caller's albums.
func (h *LibraryHandler) CreateShareLink(c echo.Context) error {
	identity := middleware.IdentityFromContext(c)
	if identity == nil || identity.User == nil {
		return response.Unauthorized(c, "INVALID_TOKEN", "Account credentials required")
	}

	albumID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid album ID")
	}

	var req createShareLinkRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid share link input")
	}

	link, err := h.uc.CreateShareLink(c.Request().Context(), usecase.CreateShareLinkInput{
		OwnerID:   identity.User.ID,
		AlbumID:   albumID,
		Password:  req.Password,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]string{"uuid": link.UUID.String()}, "Share link created successfully")
}

// ShareLinkQR renders a share link's public URL as a PNG QR code.
func (h *LibraryHandler) ShareLinkQR(c echo.Context) error {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid share link ID")
	}

	img, err := h.uc.ShareLinkQR(c.Request().Context(), linkID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", img)
}
