package invite

import (
	"context"
	"time"

	"tutoring-controlplane/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxIssueAttempts bounds the uniqueness retry loop. Ten collisions in a row
// on a 32^8 space means something is systemically wrong; surfacing
// Unavailable beats looping forever.
const maxIssueAttempts = 10

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
	return &Service{db: p.DB, node: p.Node}
}

// WithTx returns a Service bound to the given transaction, so issuance can
// participate in a caller's batch transaction.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx, node: s.node}
}

// IssueCode generates and persists a unique, time-boxed invite code for the
// tenant. Uniqueness is checked against currently unclaimed, unexpired codes;
// on collision the code is redrawn, up to maxIssueAttempts.
func (s *Service) IssueCode(ctx context.Context, tenantID string) (*InviteCode, error) {
	now := time.Now()

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, errutil.Internal("code generation failed", errutil.WithErr(err))
		}

		var count int64
		err = s.db.WithContext(ctx).
			Model(&InviteCode{}).
			Where("code = ? AND claimed_by IS NULL AND expires_at > ?", code, now).
			Count(&count).Error
		if err != nil {
			return nil, errutil.Internal("code uniqueness check failed", errutil.WithErr(err))
		}
		if count > 0 {
			zap.L().Warn("invite code collision, redrawing",
				zap.String("tenant_id", tenantID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		record := &InviteCode{
			ID:             s.node.Generate().String(),
			Code:           code,
			IssuerTenantID: tenantID,
			ExpiresAt:      now.Add(CodeTTL),
		}
		if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
			return nil, errutil.Internal("failed to persist invite code", errutil.WithErr(err))
		}
		return record, nil
	}

	return nil, errutil.Unavailable("invite code space exhausted after retries")
}

// FindClaimable looks up a code that is still unclaimed and unexpired.
func (s *Service) FindClaimable(ctx context.Context, code string) (*InviteCode, error) {
	var record InviteCode
	err := s.db.WithContext(ctx).
		Where("code = ? AND claimed_by IS NULL AND expires_at > ?", code, time.Now()).
		First(&record).Error
	if err != nil {
		return nil, errutil.NotFound("invite code not claimable", errutil.WithErr(err))
	}
	return &record, nil
}

// IsClaimable reports whether the given code text still identifies a live
// unclaimed code, and its expiry when it does.
func (s *Service) IsClaimable(ctx context.Context, code string) (bool, time.Time) {
	if code == "" {
		return false, time.Time{}
	}
	record, err := s.FindClaimable(ctx, code)
	if err != nil {
		return false, time.Time{}
	}
	return true, record.ExpiresAt
}

// MarkClaimed consumes a code for a student.
func (s *Service) MarkClaimed(ctx context.Context, codeID, studentID string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&InviteCode{}).
		Where("id = ? AND claimed_by IS NULL AND expires_at > ?", codeID, now).
		Updates(map[string]interface{}{
			"claimed_by": studentID,
			"claimed_at": now,
		})
	if res.Error != nil {
		return errutil.Internal("failed to claim invite code", errutil.WithErr(res.Error))
	}
	if res.RowsAffected == 0 {
		return errutil.Conflict("invite code already claimed or expired")
	}
	return nil
}

// SweepExpired deletes unclaimed codes whose expiry has passed. Claimed codes
// are kept as the student's connection audit trail.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("claimed_by IS NULL AND expires_at <= ?", time.Now()).
		Delete(&InviteCode{})
	return res.RowsAffected, res.Error
}
