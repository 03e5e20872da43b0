package apikey

import (
	"context"
	"fmt"
	"time"

	"tutoring-controlplane/pkg/errutil"
	"tutoring-controlplane/pkg/security"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
	}
}

// CreateKey mints a server key for a tenant and returns the one-time secret.
func (s *Service) CreateKey(ctx context.Context, tenantID string) (keyID, secret string, err error) {
	secret, err = security.GenerateBase64Secret(32)
	if err != nil {
		return "", "", fmt.Errorf("generate api key secret: %w", err)
	}

	hash, err := security.HashArgon2(secret)
	if err != nil {
		return "", "", fmt.Errorf("hash api key secret: %w", err)
	}

	id := s.node.Generate().String()
	key := &APIKey{
		ID:         id,
		TenantID:   tenantID,
		KeyID:      fmt.Sprintf("tpk_live_%s", id),
		SecretHash: hash,
		Status:     string(APIKeyStatusActive),
	}

	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return "", "", fmt.Errorf("persist api key: %w", err)
	}

	return key.KeyID, secret, nil
}

// VerifyKey resolves a key pair to its tenant. Implements middleware.KeyVerifier.
func (s *Service) VerifyKey(ctx context.Context, keyID, secret string) (string, error) {
	var key APIKey
	err := s.db.WithContext(ctx).
		Where("key_id = ? AND status = ?", keyID, APIKeyStatusActive).
		First(&key).Error
	if err != nil {
		return "", errutil.Unauthorized("unknown api key", errutil.WithErr(err))
	}

	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return "", errutil.Unauthorized("api key expired")
	}

	if !security.VerifyArgon2(secret, key.SecretHash) {
		return "", errutil.Unauthorized("api key secret mismatch")
	}

	return key.TenantID, nil
}
