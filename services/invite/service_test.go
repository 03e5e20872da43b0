package invite

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tutoring-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &InviteCode{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(ServiceParams{DB: db, Node: node})
}

func TestGenerateCodeShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, r := range code {
			require.Contains(t, codeAlphabet, string(r), "code %q uses symbol outside alphabet", code)
		}
		require.NotContains(t, code, "0")
		require.NotContains(t, code, "1")
		require.NotContains(t, code, "I")
		require.NotContains(t, code, "O")
		seen[code] = true
	}
	// 200 draws from a 32^8 space colliding would mean a broken generator.
	require.Len(t, seen, 200)
}

func TestIssueCode(t *testing.T) {
	svc := newTestService(t)

	code, err := svc.IssueCode(context.Background(), "tenant_1")
	require.NoError(t, err)
	require.Len(t, code.Code, 8)
	require.Equal(t, "tenant_1", code.IssuerTenantID)
	require.Nil(t, code.ClaimedBy)
	require.WithinDuration(t, time.Now().Add(CodeTTL), code.ExpiresAt, time.Minute)
}

func TestFindClaimable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	issued, err := svc.IssueCode(ctx, "tenant_1")
	require.NoError(t, err)

	found, err := svc.FindClaimable(ctx, issued.Code)
	require.NoError(t, err)
	require.Equal(t, issued.ID, found.ID)

	_, err = svc.FindClaimable(ctx, "NOSUCHCD")
	require.Error(t, err)
}

func TestIsClaimableExpired(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	record := &InviteCode{
		ID:             "inv_1",
		Code:           "ABCD2345",
		IssuerTenantID: "tenant_1",
		ExpiresAt:      time.Now().Add(-time.Hour),
	}
	require.NoError(t, svc.db.Create(record).Error)

	ok, _ := svc.IsClaimable(ctx, "ABCD2345")
	require.False(t, ok)
}

func TestMarkClaimedOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	issued, err := svc.IssueCode(ctx, "tenant_1")
	require.NoError(t, err)

	require.NoError(t, svc.MarkClaimed(ctx, issued.ID, "student_1"))

	// Second claim of the same code must conflict.
	err = svc.MarkClaimed(ctx, issued.ID, "student_2")
	require.Error(t, err)

	var stored InviteCode
	require.NoError(t, svc.db.First(&stored, "id = ?", issued.ID).Error)
	require.NotNil(t, stored.ClaimedBy)
	require.Equal(t, "student_1", *stored.ClaimedBy)
}

func TestSweepExpiredKeepsClaimed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	studentID := "student_1"
	claimedAt := time.Now().Add(-48 * time.Hour)
	rows := []InviteCode{
		{ID: "inv_live", Code: "LIVE2345", IssuerTenantID: "t1", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: "inv_dead", Code: "DEAD2345", IssuerTenantID: "t1", ExpiresAt: time.Now().Add(-time.Hour)},
		{ID: "inv_used", Code: "USED2345", IssuerTenantID: "t1", ExpiresAt: time.Now().Add(-time.Hour), ClaimedBy: &studentID, ClaimedAt: &claimedAt},
	}
	for i := range rows {
		require.NoError(t, svc.db.Create(&rows[i]).Error)
	}

	removed, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []InviteCode
	require.NoError(t, svc.db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
}
