package license

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tutoring-controlplane/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoSeats is returned by ReserveSeats when the tenant's license cannot
// cover the requested seats.
var ErrNoSeats = errors.New("insufficient seats")

const studentTable = "student_records"

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

func licensedStatuses() []LicenseStatus {
	return []LicenseStatus{StatusTrial, StatusActive}
}

// GetSeatStatus computes the tenant's remaining capacity. Read-only. Callers
// must treat an error as advisory-unavailable and refuse seat-consuming
// operations rather than assume a default.
func (s *Service) GetSeatStatus(ctx context.Context, tenantID string) (SeatStatus, error) {
	var lic License
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ? AND expires_at > ?", tenantID, licensedStatuses(), time.Now()).
		First(&lic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SeatStatus{}, nil
	}
	if err != nil {
		return SeatStatus{}, errutil.Unavailable("license ledger unreachable", errutil.WithErr(err))
	}

	var used int64
	err = s.db.WithContext(ctx).
		Table(studentTable).
		Where("tenant_id = ? AND status = ?", tenantID, "active").
		Count(&used).Error
	if err != nil {
		return SeatStatus{}, errutil.Unavailable("seat usage unreachable", errutil.WithErr(err))
	}

	remaining := lic.MaxSeats - int(used)
	if remaining < 0 {
		remaining = 0
	}

	expires := lic.ExpiresAt
	return SeatStatus{
		MaxSeats:       lic.MaxSeats,
		UsedSeats:      int(used),
		RemainingSeats: remaining,
		HasLicense:     true,
		ExpiresAt:      &expires,
	}, nil
}

// ReserveSeats atomically verifies that n additional seats fit under the
// tenant's license. The check and the reservation are one conditional UPDATE,
// so two concurrent batches cannot both pass a stale count.
func (s *Service) ReserveSeats(tx *gorm.DB, tenantID string, n int) error {
	if n == 0 {
		return nil
	}

	now := time.Now()
	used := tx.Table(studentTable).
		Select("COUNT(*)").
		Where("tenant_id = ? AND status = ?", tenantID, "active")

	res := tx.Model(&License{}).
		Where("tenant_id = ? AND status IN ? AND expires_at > ?", tenantID, licensedStatuses(), now).
		Where("max_seats >= (?) + ?", used, n).
		Update("updated_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoSeats
	}
	return nil
}

// ActivateLicense supersedes the tenant's current license and activates a new
// one with the given plan, as a single transaction. A failure rolls both
// writes back, so the tenant is never left without an active license mid-switch.
func (s *Service) ActivateLicense(ctx context.Context, tenantID string, plan Plan) (*License, error) {
	status := StatusActive
	if plan.Trial {
		status = StatusTrial
	}

	lic := &License{
		ID:             s.node.Generate().String(),
		TenantID:       tenantID,
		Status:         status,
		MaxSeats:       plan.MaxSeats,
		MaxDevices:     plan.MaxDevices,
		DeviceBindings: []byte("[]"),
		ExpiresAt:      time.Now().Add(plan.Duration),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&License{}).
			Where("tenant_id = ? AND status IN ?", tenantID, licensedStatuses()).
			Update("status", StatusSuperseded).Error; err != nil {
			return err
		}
		return tx.Create(lic).Error
	})
	if err != nil {
		zap.L().Error("failed to activate license",
			zap.String("tenant_id", tenantID),
			zap.String("plan", plan.Name),
			zap.Error(err),
		)
		return nil, errutil.Internal("failed to activate license", errutil.WithErr(err))
	}

	return lic, nil
}

// BindDevice appends a device to the license's binding list, bounded by the
// plan's device limit.
func (s *Service) BindDevice(ctx context.Context, tenantID, deviceID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lic License
		if err := tx.Where("tenant_id = ? AND status IN ?", tenantID, licensedStatuses()).
			First(&lic).Error; err != nil {
			return errutil.NotFound("no active license", errutil.WithErr(err))
		}

		var devices []string
		if len(lic.DeviceBindings) > 0 {
			if err := json.Unmarshal(lic.DeviceBindings, &devices); err != nil {
				devices = nil
			}
		}

		for _, d := range devices {
			if d == deviceID {
				return nil
			}
		}

		if len(devices) >= lic.MaxDevices {
			return errutil.Conflict("device limit reached")
		}

		devices = append(devices, deviceID)
		raw, err := json.Marshal(devices)
		if err != nil {
			return err
		}
		return tx.Model(&lic).Update("device_bindings", raw).Error
	})
}

// StatusLabel summarizes the tenant's license for roster responses.
func (s *Service) StatusLabel(ctx context.Context, tenantID string) string {
	var lic License
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		First(&lic).Error
	if err != nil {
		return "none"
	}

	if lic.Status == StatusTrial || lic.Status == StatusActive {
		if lic.ExpiresAt.Before(time.Now()) {
			return string(StatusExpired)
		}
		return string(lic.Status)
	}
	return string(lic.Status)
}
