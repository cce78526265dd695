// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"lumen/internal/delivery/http/middleware"
	"lumen/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	ScanHandler    *handler.ScanHandler
	LibraryHandler *handler.LibraryHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	scanHandler    *handler.ScanHandler
	libraryHandler *handler.LibraryHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		scanHandler:    params.ScanHandler,
		libraryHandler: params.LibraryHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", r.authHandler.Signup)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/oidc", r.authHandler.OIDCLogin)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.GET("/sessions", r.authHandler.Sessions, r.authMiddleware.Authenticate)
	}

	// Scan routes require an account identity
	scanGroup := e.Group("/scans", r.authMiddleware.Authenticate)
	{
		scanGroup.POST("", r.scanHandler.StartScan)
		scanGroup.GET("/:id", r.scanHandler.ScanStatus)
	}

	// Library browsing requires an account identity
	e.GET("/folders", r.libraryHandler.ListFolders, r.authMiddleware.Authenticate)
	e.GET("/folders/:id/media", r.libraryHandler.FolderMedia, r.authMiddleware.Authenticate)
	e.POST("/albums", r.libraryHandler.CreateAlbum, r.authMiddleware.Authenticate)
	e.POST("/albums/:id/media", r.libraryHandler.AlbumAddMedia, r.authMiddleware.Authenticate)
	e.POST("/albums/:id/share-links", r.libraryHandler.CreateShareLink, r.authMiddleware.Authenticate)

	// File access accepts either an account or a share link credential
	e.GET("/media/:id/file", r.libraryHandler.MediaFile, r.authMiddleware.AuthenticateMixed)

	// QR codes are public; the link itself still gates the album
	e.GET("/share-links/:id/qr", r.libraryHandler.ShareLinkQR)
}
