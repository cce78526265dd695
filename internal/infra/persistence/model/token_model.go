package model

import "time"

// RefreshTokenModel mirrors the 'refresh_tokens' table. One row per device session.
type RefreshTokenModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index"`
	Token     string    `gorm:"type:varchar(64);unique;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time

	AccessTokens []AccessTokenModel `gorm:"foreignKey:RefreshTokenID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}

// AccessTokenModel mirrors the 'access_tokens' table. The token value doubles
// as the jti inside the signed credential.
type AccessTokenModel struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	RefreshTokenID int64     `gorm:"not null;index"`
	Token          string    `gorm:"type:varchar(64);unique;not null"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	CreatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (AccessTokenModel) TableName() string {
	return "access_tokens"
}
