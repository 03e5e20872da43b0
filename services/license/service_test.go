package license_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutoring-controlplane/services/license"
	"tutoring-controlplane/services/student"
	"tutoring-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*license.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &license.License{}, &student.StudentRecord{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return license.NewService(license.ServiceParams{DB: db, Node: node}), db
}

func seedLicense(t *testing.T, db *gorm.DB, tenantID string, seats int) {
	t.Helper()
	require.NoError(t, db.Create(&license.License{
		ID:             "lic_" + tenantID,
		TenantID:       tenantID,
		Status:         license.StatusActive,
		MaxSeats:       seats,
		MaxDevices:     1,
		DeviceBindings: []byte("[]"),
		ExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
	}).Error)
}

func seedStudent(t *testing.T, db *gorm.DB, tenantID, externalID string, status student.StudentStatus) {
	t.Helper()
	require.NoError(t, db.Create(&student.StudentRecord{
		ID:                "stu_" + tenantID + "_" + externalID,
		TenantID:          tenantID,
		ExternalStudentID: externalID,
		DisplayName:       "학생 " + externalID,
		Status:            status,
	}).Error)
}

func TestGetSeatStatusNoLicense(t *testing.T) {
	svc, _ := newTestService(t)

	seats, err := svc.GetSeatStatus(context.Background(), "tenant_1")
	require.NoError(t, err)
	require.False(t, seats.HasLicense)
	require.Zero(t, seats.RemainingSeats)
}

func TestGetSeatStatusCountsActiveOnly(t *testing.T) {
	svc, db := newTestService(t)
	seedLicense(t, db, "tenant_1", 5)
	seedStudent(t, db, "tenant_1", "ext_1", student.StatusActive)
	seedStudent(t, db, "tenant_1", "ext_2", student.StatusActive)
	seedStudent(t, db, "tenant_1", "ext_3", student.StatusInactive)
	// Another tenant's students never count against this license.
	seedLicense(t, db, "tenant_2", 5)
	seedStudent(t, db, "tenant_2", "ext_1", student.StatusActive)

	seats, err := svc.GetSeatStatus(context.Background(), "tenant_1")
	require.NoError(t, err)
	require.True(t, seats.HasLicense)
	require.Equal(t, 5, seats.MaxSeats)
	require.Equal(t, 2, seats.UsedSeats)
	require.Equal(t, 3, seats.RemainingSeats)
}

func TestGetSeatStatusIgnoresExpiredLicense(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Create(&license.License{
		ID:             "lic_old",
		TenantID:       "tenant_1",
		Status:         license.StatusActive,
		MaxSeats:       5,
		DeviceBindings: []byte("[]"),
		ExpiresAt:      time.Now().Add(-time.Hour),
	}).Error)

	seats, err := svc.GetSeatStatus(context.Background(), "tenant_1")
	require.NoError(t, err)
	require.False(t, seats.HasLicense)
}

func TestReserveSeats(t *testing.T) {
	svc, db := newTestService(t)
	seedLicense(t, db, "tenant_1", 3)
	seedStudent(t, db, "tenant_1", "ext_1", student.StatusActive)

	require.NoError(t, svc.ReserveSeats(db, "tenant_1", 2))

	// Four seats against a 3-seat license must be refused.
	err := svc.ReserveSeats(db, "tenant_1", 3)
	require.ErrorIs(t, err, license.ErrNoSeats)

	// Zero is always a no-op, licensed or not.
	require.NoError(t, svc.ReserveSeats(db, "tenant_2", 0))
	require.ErrorIs(t, svc.ReserveSeats(db, "tenant_2", 1), license.ErrNoSeats)
}

func TestActivateLicenseSupersedes(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.ActivateLicense(ctx, "tenant_1", license.TrialPlan)
	require.NoError(t, err)
	require.Equal(t, license.StatusTrial, first.Status)

	second, err := svc.ActivateLicense(ctx, "tenant_1", license.Plan{
		Name:       "standard",
		MaxSeats:   20,
		MaxDevices: 2,
		Duration:   365 * 24 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, license.StatusActive, second.Status)

	var old license.License
	require.NoError(t, db.First(&old, "id = ?", first.ID).Error)
	require.Equal(t, license.StatusSuperseded, old.Status)

	// Exactly one license remains live.
	var live int64
	require.NoError(t, db.Model(&license.License{}).
		Where("tenant_id = ? AND status IN ?", "tenant_1",
			[]license.LicenseStatus{license.StatusTrial, license.StatusActive}).
		Count(&live).Error)
	require.EqualValues(t, 1, live)

	seats, err := svc.GetSeatStatus(ctx, "tenant_1")
	require.NoError(t, err)
	require.Equal(t, 20, seats.MaxSeats)
}

func TestBindDeviceLimit(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedLicense(t, db, "tenant_1", 5)

	require.NoError(t, svc.BindDevice(ctx, "tenant_1", "device_a"))
	// Re-binding the same device is idempotent.
	require.NoError(t, svc.BindDevice(ctx, "tenant_1", "device_a"))
	// A second device exceeds MaxDevices=1.
	require.Error(t, svc.BindDevice(ctx, "tenant_1", "device_b"))
}
