package student

import (
	"context"
	"errors"
	"strings"
	"time"

	"tutoring-controlplane/pkg/config"
	"tutoring-controlplane/pkg/errutil"
	"tutoring-controlplane/pkg/notify"
	"tutoring-controlplane/pkg/roster"
	"tutoring-controlplane/pkg/security"
	"tutoring-controlplane/services/invite"
	"tutoring-controlplane/services/license"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db       *gorm.DB
	repo     Repository
	invite   *invite.Service
	license  *license.Service
	roster   roster.Client
	notifier notify.Notifier
	node     *snowflake.Node
	aesKey   [32]byte
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Repo     Repository
	Invite   *invite.Service
	License  *license.Service
	Roster   roster.Client
	Notifier notify.Notifier
	Node     *snowflake.Node
	Config   *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		repo:     p.Repo,
		invite:   p.Invite,
		license:  p.License,
		roster:   p.Roster,
		notifier: p.Notifier,
		node:     p.Node,
		aesKey:   security.KeyFromSecret(p.Config.SecretAES),
	}
}

// SaveRosterAccount upserts the tenant's roster platform credentials. The
// password is encrypted before it touches the database.
func (s *Service) SaveRosterAccount(ctx context.Context, tenantID, username, password string) error {
	enc, err := security.Encrypt([]byte(password), s.aesKey)
	if err != nil {
		return errutil.Internal("failed to encrypt credentials", errutil.WithErr(err))
	}

	account := &RosterAccount{
		TenantID:    tenantID,
		Username:    username,
		PasswordEnc: enc,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "password_enc", "updated_at"}),
		}).
		Create(account).Error
	if err != nil {
		return errutil.Internal("failed to save roster account", errutil.WithErr(err))
	}
	return nil
}

// RosterCredentials loads and decrypts the tenant's roster login.
func (s *Service) RosterCredentials(ctx context.Context, tenantID string) (roster.Credentials, error) {
	var account RosterAccount
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return roster.Credentials{}, errutil.NotFound("no roster account configured")
	}
	if err != nil {
		return roster.Credentials{}, errutil.Internal("failed to load roster account", errutil.WithErr(err))
	}

	password, err := security.Decrypt(account.PasswordEnc, s.aesKey)
	if err != nil {
		return roster.Credentials{}, errutil.Internal("failed to decrypt credentials", errutil.WithErr(err))
	}

	return roster.Credentials{Username: account.Username, Password: password}, nil
}

// SyncStudent is one row of the merged roster view: the external platform's
// entry annotated with local management state.
type SyncStudent struct {
	ExternalStudentID string     `json:"external_student_id"`
	Name              string     `json:"name"`
	Enrollment        string     `json:"enrollment"`
	Managed           bool       `json:"managed"`
	IsConnected       bool       `json:"is_connected"`
	InviteCode        string     `json:"invite_code,omitempty"`
	InviteSentAt      *time.Time `json:"invite_sent_at,omitempty"`
}

// SyncView is the GET sync response.
type SyncView struct {
	LicenseStatus string             `json:"license_status"`
	Seats         license.SeatStatus `json:"seats"`
	Students      []SyncStudent      `json:"students"`
}

// GetSync fetches the tenant's live roster from the external platform and
// merges it with local student records and license state.
func (s *Service) GetSync(ctx context.Context, tenantID string) (*SyncView, error) {
	creds, err := s.RosterCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	session, err := s.roster.Authenticate(ctx, creds)
	if err != nil {
		return nil, errutil.BadGateway("roster platform login failed", errutil.WithErr(err))
	}

	entries, err := s.roster.FetchRoster(ctx, session)
	if err != nil {
		return nil, errutil.BadGateway("roster fetch failed", errutil.WithErr(err))
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ExternalID)
	}
	records, err := s.repo.ListByExternalIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, errutil.Internal("failed to load student records", errutil.WithErr(err))
	}

	seats, err := s.license.GetSeatStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	view := &SyncView{
		LicenseStatus: s.license.StatusLabel(ctx, tenantID),
		Seats:         seats,
		Students:      make([]SyncStudent, 0, len(entries)),
	}
	for _, e := range entries {
		row := SyncStudent{
			ExternalStudentID: e.ExternalID,
			Name:              e.DisplayName,
			Enrollment:        string(e.Enrollment),
		}
		if record := records[e.ExternalID]; record != nil {
			row.Managed = record.Status == StatusActive
			row.IsConnected = record.IsConnected
			row.InviteSentAt = record.InviteSentAt
			if record.InviteCode != nil && !record.IsConnected {
				row.InviteCode = *record.InviteCode
			}
		}
		view.Students = append(view.Students, row)
	}

	return view, nil
}

// Mapping links a local record to an external roster id by hand.
type Mapping struct {
	StudentID         string `json:"student_id" binding:"required"`
	ExternalStudentID string `json:"external_student_id" binding:"required"`
}

// SyncRequest is the POST sync body: explicit mappings plus an optional
// name-based auto-link pass over the remaining unlinked records. An empty
// request runs auto-link alone.
type SyncRequest struct {
	Mappings []Mapping `json:"mappings"`
	AutoLink bool      `json:"auto_link"`
}

// SyncOutcome reports how many records were linked.
type SyncOutcome struct {
	Linked     int `json:"linked"`
	AutoLinked int `json:"auto_linked"`
	Unmatched  int `json:"unmatched"`
}

// PostSync applies explicit mappings, then optionally auto-links unlinked
// records to roster entries whose normalized names match exactly once.
func (s *Service) PostSync(ctx context.Context, tenantID string, req SyncRequest) (*SyncOutcome, error) {
	outcome := &SyncOutcome{}

	for _, m := range req.Mappings {
		res := s.db.WithContext(ctx).
			Model(&StudentRecord{}).
			Where("id = ? AND tenant_id = ?", m.StudentID, tenantID).
			Update("external_student_id", m.ExternalStudentID)
		if res.Error != nil {
			return nil, errutil.Internal("failed to link student", errutil.WithErr(res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, errutil.NotFound("student not found: " + m.StudentID)
		}
		outcome.Linked++
	}

	// Auto-link runs when asked for, and by default when no explicit
	// mappings were supplied.
	if !req.AutoLink && len(req.Mappings) > 0 {
		return outcome, nil
	}

	creds, err := s.RosterCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	session, err := s.roster.Authenticate(ctx, creds)
	if err != nil {
		return nil, errutil.BadGateway("roster platform login failed", errutil.WithErr(err))
	}
	entries, err := s.roster.FetchRoster(ctx, session)
	if err != nil {
		return nil, errutil.BadGateway("roster fetch failed", errutil.WithErr(err))
	}

	unlinked, err := s.repo.ListUnlinked(ctx, tenantID)
	if err != nil {
		return nil, errutil.Internal("failed to load unlinked students", errutil.WithErr(err))
	}

	// Ambiguous names (the same normalized name on more than one roster
	// entry) are never auto-linked.
	byName := make(map[string][]roster.Entry)
	for _, e := range entries {
		key := normalizeName(e.DisplayName)
		byName[key] = append(byName[key], e)
	}

	for i := range unlinked {
		matches := byName[normalizeName(unlinked[i].DisplayName)]
		if len(matches) != 1 {
			outcome.Unmatched++
			continue
		}

		err := s.db.WithContext(ctx).
			Model(&unlinked[i]).
			Update("external_student_id", matches[0].ExternalID).Error
		if err != nil {
			zap.L().Warn("auto-link failed",
				zap.String("tenant_id", tenantID),
				zap.String("student_id", unlinked[i].ID),
				zap.Error(err),
			)
			outcome.Unmatched++
			continue
		}
		outcome.AutoLinked++
	}

	return outcome, nil
}

// normalizeName collapses all whitespace so "김 민준" and "김민준" compare equal.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), "")
}

// ClaimResult tells the claiming app which tenant and student the code bound.
type ClaimResult struct {
	TenantID    string `json:"tenant_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

// ClaimCode consumes an invite code and connects its student record. The
// code's claim and the record's connection flip in one transaction.
func (s *Service) ClaimCode(ctx context.Context, code string) (*ClaimResult, error) {
	record, err := s.invite.FindClaimable(ctx, code)
	if err != nil {
		return nil, err
	}

	var student StudentRecord
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND invite_code = ?", record.IssuerTenantID, code).
		First(&student).Error
	if err != nil {
		return nil, errutil.NotFound("no student record for invite code", errutil.WithErr(err))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.invite.WithTx(tx).MarkClaimed(ctx, record.ID, student.ID); err != nil {
			return err
		}
		return tx.Model(&student).Update("is_connected", true).Error
	})
	if err != nil {
		return nil, err
	}

	return &ClaimResult{
		TenantID:    student.TenantID,
		StudentID:   student.ID,
		StudentName: student.DisplayName,
	}, nil
}
