package roster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const rosterSelectPage = `
<html><body>
<form>
<select name="student_id">
  <option value="">-- 학생 선택 --</option>
  <option value="minjun01">김민준 (수강중)</option>
  <option value="seoyun02">이서윤 (휴원)</option>
  <option value="left03">박지훈 (퇴원)</option>
  <option value="minjun01">김민준 (수강중)</option>
  <option value="bot99">TestBot (수강중)</option>
</select>
</form>
<table class="student_list"><tbody>
<tr><td>table-only</td><td>표학생</td><td>수강중</td></tr>
</tbody></table>
</body></html>`

const rosterTablePage = `
<html><body>
<table class="student_list"><tbody>
<tr><td>minjun01</td><td>김민준</td><td>수강중</td></tr>
<tr><td>seoyun02</td><td>이서윤</td><td>휴원</td></tr>
<tr><td>left03</td><td>박지훈</td><td>퇴원</td></tr>
<tr><td></td><td>무효</td><td>수강중</td></tr>
</tbody></table>
</body></html>`

func TestParseRosterPrefersSelectList(t *testing.T) {
	entries, err := ParseRoster(rosterSelectPage)
	require.NoError(t, err)

	// table row must not leak in when the select list is present
	require.Len(t, entries, 2)
	require.Equal(t, "minjun01", entries[0].ExternalID)
	require.Equal(t, "김민준", entries[0].DisplayName)
	require.Equal(t, Enrolled, entries[0].Enrollment)
	require.Equal(t, "seoyun02", entries[1].ExternalID)
	require.Equal(t, Suspended, entries[1].Enrollment)
}

func TestParseRosterDropsNonKoreanNames(t *testing.T) {
	entries, err := ParseRoster(rosterSelectPage)
	require.NoError(t, err)

	for _, e := range entries {
		require.NotEqual(t, "bot99", e.ExternalID)
	}
}

func TestParseRosterTableFallback(t *testing.T) {
	entries, err := ParseRoster(rosterTablePage)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	require.Equal(t, "minjun01", entries[0].ExternalID)
	require.Equal(t, "seoyun02", entries[1].ExternalID)
}

func TestParseRosterDedupFirstWins(t *testing.T) {
	entries, err := ParseRoster(rosterSelectPage)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, e := range entries {
		seen[e.ExternalID]++
	}
	require.Equal(t, 1, seen["minjun01"])
}

func TestSplitNameLabel(t *testing.T) {
	name, label := splitNameLabel("김민준 (수강중)")
	require.Equal(t, "김민준", name)
	require.Equal(t, "수강중", label)

	name, label = splitNameLabel("라벨없음")
	require.Equal(t, "라벨없음", name)
	require.Empty(t, label)
}
