package handler

import (
	"time"

	"lumen/internal/domain/entity"
	"lumen/internal/usecase"
)

// userResponse is the outward account shape; internal row IDs stay internal.
type userResponse struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserResponse(user *entity.User) *userResponse {
	return &userResponse{
		UUID:     user.UUID.String(),
		Username: user.Username,
		Email:    user.Email,
	}
}

type tokenPairResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	User         *userResponse `json:"user"`
}

func newTokenPairResponse(output *usecase.TokenPairOutput) *tokenPairResponse {
	return &tokenPairResponse{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
		ExpiresAt:    output.ExpiresAt,
		User:         newUserResponse(output.User),
	}
}

type folderResponse struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func newFolderResponses(folders []*entity.Folder) []*folderResponse {
	out := make([]*folderResponse, 0, len(folders))
	for _, folder := range folders {
		out = append(out, &folderResponse{
			ID:   folder.ID,
			UUID: folder.UUID.String(),
			Name: folder.Name,
		})
	}

	return out
}

type mediaResponse struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Filename  string    `json:"filename"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	DateTaken time.Time `json:"dateTaken"`
}

func newMediaResponses(media []*entity.Media) []*mediaResponse {
	out := make([]*mediaResponse, 0, len(media))
	for _, m := range media {
		out = append(out, &mediaResponse{
			ID:        m.ID,
			UUID:      m.UUID.String(),
			Filename:  m.Filename,
			Width:     m.Width,
			Height:    m.Height,
			DateTaken: m.DateTaken,
		})
	}

	return out
}
