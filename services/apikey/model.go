package apikey

import (
	"time"
)

type APIKeyStatus string

const (
	APIKeyStatusActive  APIKeyStatus = "active"
	APIKeyStatusRevoked APIKeyStatus = "revoked"
	APIKeyStatusExpired APIKeyStatus = "expired"
)

type APIKey struct {
	ID         string     `gorm:"column:id;primaryKey"`
	TenantID   string     `gorm:"column:tenant_id;not null;index"`
	KeyID      string     `gorm:"column:key_id;uniqueIndex;not null"` // e.g. tpk_live_xxx
	SecretHash string     `gorm:"column:secret_hash;not null"`        // argon2 hash, never plaintext
	Status     string     `gorm:"column:status;default:'active';not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt  *time.Time `gorm:"column:expires_at"`
}

func (APIKey) TableName() string { return "api_keys" }
