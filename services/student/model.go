package student

import (
	"time"
)

type StudentStatus string

const (
	StatusActive   StudentStatus = "active"
	StatusInactive StudentStatus = "inactive"
)

// StudentRecord is a managed student. Records are soft-deactivated and never
// hard-deleted; an active record consumes one license seat.
type StudentRecord struct {
	ID       string `gorm:"column:id;primaryKey"`
	TenantID string `gorm:"column:tenant_id;uniqueIndex:idx_tenant_external;not null"`
	// The unique index is partial: records created before linking carry an
	// empty external id and must not collide with each other.
	ExternalStudentID string        `gorm:"column:external_student_id;uniqueIndex:idx_tenant_external,where:external_student_id <> ''"`
	DisplayName       string        `gorm:"column:display_name;not null"`
	Status            StudentStatus `gorm:"column:status;not null;default:'active'"`
	InviteCode        *string       `gorm:"column:invite_code"`
	IsConnected       bool          `gorm:"column:is_connected;not null;default:false"`
	InviteSentAt      *time.Time    `gorm:"column:invite_sent_at"`
	CreatedAt         time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (StudentRecord) TableName() string { return "student_records" }

// RosterAccount stores a tenant's credentials for the external roster
// platform. The password is AES-GCM encrypted at rest.
type RosterAccount struct {
	TenantID    string    `gorm:"column:tenant_id;primaryKey"`
	Username    string    `gorm:"column:username;not null"`
	PasswordEnc string    `gorm:"column:password_enc;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (RosterAccount) TableName() string { return "roster_accounts" }
