package roster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const lessonIndexPage = `
<html><body>
<ul>
  <li><a href="/lessons/lesson_view?student_id=minjun01&seq=1042&date=2026-08-30">김민준</a></li>
  <li><a href="/lessons/lesson_view?student_id=seoyun02&seq=1043&date=2026-08-30">이서윤</a></li>
  <li><a href="/lessons/lesson_view?student_id=minjun01&seq=1042&date=2026-08-30">중복</a></li>
  <li><a href="/lessons/lesson_view?seq=9999">학생없음</a></li>
  <li><a href="/notice/view?id=5">공지</a></li>
</ul>
</body></html>`

const lessonDetailPage = `
<html><body>
<table class="feedback">
<tr><th>출석</th><td>출석</td></tr>
<tr><th>숙제</th><td>완료</td></tr>
<tr><th>첨삭</th><td>발음 교정 2건</td></tr>
<tr><th>선생님 코멘트</th><td>오늘 수업 아주 잘했어요!</td></tr>
</table>
</body></html>`

func TestParseLessonIndex(t *testing.T) {
	refs, err := ParseLessonIndex(lessonIndexPage)
	require.NoError(t, err)

	require.Len(t, refs, 2)
	require.Equal(t, LessonRef{ExternalStudentID: "minjun01", SequenceID: "1042"}, refs[0])
	require.Equal(t, LessonRef{ExternalStudentID: "seoyun02", SequenceID: "1043"}, refs[1])
}

func TestParseLessonDetail(t *testing.T) {
	detail := ParseLessonDetail(lessonDetailPage)

	require.Equal(t, "출석", detail.Attendance)
	require.Equal(t, "완료", detail.HomeworkStatus)
	require.Equal(t, "발음 교정 2건", detail.Corrections)
	require.Equal(t, "오늘 수업 아주 잘했어요!", detail.TeacherNote)
}

func TestParseLessonDetailToleratesMissingFields(t *testing.T) {
	detail := ParseLessonDetail(`<html><body><table class="feedback">
<tr><th>출석</th><td>결석</td></tr>
</table></body></html>`)

	require.Equal(t, "결석", detail.Attendance)
	require.Empty(t, detail.HomeworkStatus)
	require.Empty(t, detail.Corrections)
	require.Empty(t, detail.TeacherNote)
}
