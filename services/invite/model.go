package invite

import (
	"time"
)

// CodeTTL is how long an invite code stays claimable after issuance.
const CodeTTL = 7 * 24 * time.Hour

// InviteCode is a short-lived, single-claim token letting a student attach
// themselves to a tenant's roster. Codes are unique among unclaimed,
// unexpired codes at issuance time; expired codes may recycle.
type InviteCode struct {
	ID             string     `gorm:"column:id;primaryKey"`
	Code           string     `gorm:"column:code;index;not null"`
	IssuerTenantID string     `gorm:"column:issuer_tenant_id;index;not null"`
	ExpiresAt      time.Time  `gorm:"column:expires_at;not null"`
	ClaimedBy      *string    `gorm:"column:claimed_by"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	ClaimedAt      *time.Time `gorm:"column:claimed_at"`
}

func (InviteCode) TableName() string { return "invite_codes" }

// Claimable reports whether the code can still be claimed at t.
func (c *InviteCode) Claimable(t time.Time) bool {
	return c.ClaimedBy == nil && c.ExpiresAt.After(t)
}
