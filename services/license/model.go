package license

import (
	"time"

	"gorm.io/datatypes"
)

type LicenseStatus string

const (
	StatusTrial      LicenseStatus = "trial"
	StatusActive     LicenseStatus = "active"
	StatusExpired    LicenseStatus = "expired"
	StatusSuperseded LicenseStatus = "superseded"
)

// License grants a tenant a bounded number of seats until expiry. At most one
// license per tenant is active at any time; activating a new one supersedes
// the old in the same transaction.
type License struct {
	ID             string         `gorm:"column:id;primaryKey"`
	TenantID       string         `gorm:"column:tenant_id;index;not null"`
	Status         LicenseStatus  `gorm:"column:status;not null"`
	MaxSeats       int            `gorm:"column:max_seats;not null"`
	MaxDevices     int            `gorm:"column:max_devices;not null;default:1"`
	DeviceBindings datatypes.JSON `gorm:"column:device_bindings;type:jsonb"`
	ExpiresAt      time.Time      `gorm:"column:expires_at;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (License) TableName() string { return "licenses" }

// Plan describes the capacity profile applied when activating a license.
type Plan struct {
	Name       string
	MaxSeats   int
	MaxDevices int
	Duration   time.Duration
	Trial      bool
}

// TrialPlan is the short profile used before conversion to a paid plan.
var TrialPlan = Plan{
	Name:       "trial",
	MaxSeats:   3,
	MaxDevices: 1,
	Duration:   14 * 24 * time.Hour,
	Trial:      true,
}

// SeatStatus is the read-only capacity view consumed before any
// seat-consuming mutation.
type SeatStatus struct {
	MaxSeats       int        `json:"max_seats"`
	UsedSeats      int        `json:"used_seats"`
	RemainingSeats int        `json:"remaining_seats"`
	HasLicense     bool       `json:"has_license"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}
