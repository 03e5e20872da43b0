package student

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tutoring-controlplane/pkg/roster"
	"tutoring-controlplane/services/invite"
)

func TestSaveRosterAccountRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.SaveRosterAccount(ctx, "tenant_1", "academy_admin", "s3cret!"))

	// Stored ciphertext never equals the plaintext.
	var account RosterAccount
	require.NoError(t, env.db.First(&account, "tenant_id = ?", "tenant_1").Error)
	require.NotEqual(t, "s3cret!", account.PasswordEnc)

	creds, err := env.svc.RosterCredentials(ctx, "tenant_1")
	require.NoError(t, err)
	require.Equal(t, "academy_admin", creds.Username)
	require.Equal(t, "s3cret!", creds.Password)

	// Upsert replaces, never duplicates.
	require.NoError(t, env.svc.SaveRosterAccount(ctx, "tenant_1", "academy_admin", "rotated"))
	creds, err = env.svc.RosterCredentials(ctx, "tenant_1")
	require.NoError(t, err)
	require.Equal(t, "rotated", creds.Password)

	var count int64
	require.NoError(t, env.db.Model(&RosterAccount{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRosterCredentialsMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RosterCredentials(context.Background(), "tenant_1")
	require.Error(t, err)
}

func TestClaimCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.invite.IssueCode(ctx, "tenant_1")
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&StudentRecord{
		ID: "stu_1", TenantID: "tenant_1", ExternalStudentID: "ext_1",
		DisplayName: "김민준", Status: StatusActive, InviteCode: &issued.Code,
	}).Error)

	result, err := env.svc.ClaimCode(ctx, issued.Code)
	require.NoError(t, err)
	require.Equal(t, "tenant_1", result.TenantID)
	require.Equal(t, "stu_1", result.StudentID)
	require.Equal(t, "김민준", result.StudentName)

	var record StudentRecord
	require.NoError(t, env.db.First(&record, "id = ?", "stu_1").Error)
	require.True(t, record.IsConnected)

	var code invite.InviteCode
	require.NoError(t, env.db.First(&code, "id = ?", issued.ID).Error)
	require.NotNil(t, code.ClaimedBy)
	require.Equal(t, "stu_1", *code.ClaimedBy)

	// A claimed code cannot be claimed again.
	_, err = env.svc.ClaimCode(ctx, issued.Code)
	require.Error(t, err)
}

func TestClaimCodeExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.db.Create(&invite.InviteCode{
		ID: "inv_dead", Code: "DEAD2345", IssuerTenantID: "tenant_1",
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)

	_, err := env.svc.ClaimCode(ctx, "DEAD2345")
	require.Error(t, err)
}

func TestGetSyncMergesRosterAndRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedLicense(t, "tenant_1", 5)
	require.NoError(t, env.svc.SaveRosterAccount(ctx, "tenant_1", "admin", "pw"))

	env.roster.entries = []roster.Entry{
		{ExternalID: "ext_1", DisplayName: "김민준", Enrollment: roster.Enrolled},
		{ExternalID: "ext_2", DisplayName: "이서연", Enrollment: roster.Suspended},
	}

	code := "LIVE2345"
	require.NoError(t, env.db.Create(&StudentRecord{
		ID: "stu_1", TenantID: "tenant_1", ExternalStudentID: "ext_1",
		DisplayName: "김민준", Status: StatusActive, InviteCode: &code,
	}).Error)

	view, err := env.svc.GetSync(ctx, "tenant_1")
	require.NoError(t, err)
	require.Equal(t, "active", view.LicenseStatus)
	require.Equal(t, 5, view.Seats.MaxSeats)
	require.Len(t, view.Students, 2)

	require.True(t, view.Students[0].Managed)
	require.Equal(t, "LIVE2345", view.Students[0].InviteCode)
	require.False(t, view.Students[1].Managed)
	require.Empty(t, view.Students[1].InviteCode)
}

func TestPostSyncExplicitMapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.db.Create(&StudentRecord{
		ID: "stu_1", TenantID: "tenant_1", DisplayName: "김민준", Status: StatusActive,
	}).Error)

	outcome, err := env.svc.PostSync(ctx, "tenant_1", SyncRequest{
		Mappings: []Mapping{{StudentID: "stu_1", ExternalStudentID: "ext_9"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Linked)

	var record StudentRecord
	require.NoError(t, env.db.First(&record, "id = ?", "stu_1").Error)
	require.Equal(t, "ext_9", record.ExternalStudentID)
}

func TestPostSyncAutoLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.svc.SaveRosterAccount(ctx, "tenant_1", "admin", "pw"))

	env.roster.entries = []roster.Entry{
		{ExternalID: "ext_1", DisplayName: "김 민준", Enrollment: roster.Enrolled},
		{ExternalID: "ext_2", DisplayName: "이서연", Enrollment: roster.Enrolled},
		{ExternalID: "ext_3", DisplayName: "이서연", Enrollment: roster.Enrolled},
	}

	// Whitespace differences must not block the match.
	require.NoError(t, env.db.Create(&StudentRecord{
		ID: "stu_1", TenantID: "tenant_1", DisplayName: "김민준", Status: StatusActive,
	}).Error)
	// Ambiguous name: two roster entries share it, so it stays unlinked.
	require.NoError(t, env.db.Create(&StudentRecord{
		ID: "stu_2", TenantID: "tenant_1", DisplayName: "이서연", Status: StatusActive,
	}).Error)

	// An empty request (no mappings, no flag) defaults to auto-link.
	outcome, err := env.svc.PostSync(ctx, "tenant_1", SyncRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, outcome.AutoLinked)
	require.Equal(t, 1, outcome.Unmatched)

	var record StudentRecord
	require.NoError(t, env.db.First(&record, "id = ?", "stu_1").Error)
	require.Equal(t, "ext_1", record.ExternalStudentID)
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "김민준", normalizeName("김 민준"))
	require.Equal(t, "김민준", normalizeName("  김민준  "))
	require.Equal(t, normalizeName("김 민 준"), normalizeName("김민준"))
}
