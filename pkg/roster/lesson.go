package roster

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseLessonIndex extracts (student, lesson sequence) pairs from the day's
// lesson index page. Each lesson links to its detail view with the student id
// and the platform's per-lesson sequence number in the query string.
func ParseLessonIndex(html string) ([]LessonRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse lesson index html: %w", err)
	}

	var refs []LessonRef
	seen := make(map[string]bool)

	doc.Find("a[href*='lesson_view']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}

		q := u.Query()
		ref := LessonRef{
			ExternalStudentID: q.Get("student_id"),
			SequenceID:        q.Get("seq"),
		}
		if ref.ExternalStudentID == "" || ref.SequenceID == "" {
			return
		}

		key := ref.ExternalStudentID + "/" + ref.SequenceID
		if seen[key] {
			return
		}
		seen[key] = true
		refs = append(refs, ref)
	})

	return refs, nil
}

// Labels for the feedback detail fields as rendered by the platform.
var detailLabels = map[string]func(*LessonDetail, string){
	"출석":      func(d *LessonDetail, v string) { d.Attendance = v },
	"숙제":      func(d *LessonDetail, v string) { d.HomeworkStatus = v },
	"첨삭":      func(d *LessonDetail, v string) { d.Corrections = v },
	"선생님 코멘트": func(d *LessonDetail, v string) { d.TeacherNote = v },
	"코멘트":     func(d *LessonDetail, v string) { d.TeacherNote = v },
}

// ParseLessonDetail pulls the labeled feedback fields out of a lesson detail
// page. Missing labels leave the field empty; a per-field miss is tolerated.
func ParseLessonDetail(html string) LessonDetail {
	var detail LessonDetail

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detail
	}

	doc.Find("table.feedback tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("th").First().Text())
		value := strings.TrimSpace(row.Find("td").First().Text())

		if set, ok := detailLabels[label]; ok && value != "" {
			set(&detail, value)
		}
	})

	return detail
}
