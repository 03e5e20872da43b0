package roster

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parser extracts roster entries from one markup version of the roster page.
// Upstream layout drift means a new implementation, not edits scattered
// through the sync code.
type Parser interface {
	Parse(doc *goquery.Document) []Entry
}

var hangulRe = regexp.MustCompile(`[가-힣]`)

// Enrollment labels as rendered by the legacy platform.
var enrollmentLabels = map[string]EnrollmentStatus{
	"수강중": Enrolled,
	"수강":  Enrolled,
	"휴원":  Suspended,
	"휴원중": Suspended,
	"퇴원":  Withdrawn,
}

// ParseRoster parses the roster page. The labeled student selection list
// carries the entire roster and sidesteps pagination, so it is preferred;
// row-scraping the rendered table is the fallback for markup versions
// without it.
func ParseRoster(html string) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse roster html: %w", err)
	}

	entries := (selectListParser{}).Parse(doc)
	if len(entries) == 0 {
		entries = (tableParser{}).Parse(doc)
	}

	return filterEntries(entries), nil
}

// selectListParser reads the student <select> element, whose options list
// every student as `value=<external id>`, text `<name> (<label>)`.
type selectListParser struct{}

func (selectListParser) Parse(doc *goquery.Document) []Entry {
	var entries []Entry

	doc.Find("select[name=student_id] option").Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("value")
		if !ok || id == "" {
			return
		}
		name, label := splitNameLabel(sel.Text())
		entries = append(entries, Entry{
			ExternalID:  id,
			DisplayName: name,
			Enrollment:  classifyLabel(label),
		})
	})

	return entries
}

// tableParser scrapes the rendered roster table: one row per student with
// id, name and enrollment label cells.
type tableParser struct{}

func (tableParser) Parse(doc *goquery.Document) []Entry {
	var entries []Entry

	doc.Find("table.student_list tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		entries = append(entries, Entry{
			ExternalID:  strings.TrimSpace(cells.Eq(0).Text()),
			DisplayName: strings.TrimSpace(cells.Eq(1).Text()),
			Enrollment:  classifyLabel(strings.TrimSpace(cells.Eq(2).Text())),
		})
	})

	return entries
}

// filterEntries deduplicates by external id (first occurrence wins), keeps
// only enrolled or suspended students, and drops rows without a Korean-script
// name as noise.
func filterEntries(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if e.ExternalID == "" || seen[e.ExternalID] {
			continue
		}
		seen[e.ExternalID] = true

		if e.Enrollment != Enrolled && e.Enrollment != Suspended {
			continue
		}
		if !hangulRe.MatchString(e.DisplayName) {
			continue
		}
		out = append(out, e)
	}

	return out
}

// splitNameLabel splits option text like "김민준 (수강중)" into name and label.
func splitNameLabel(text string) (name, label string) {
	text = strings.TrimSpace(text)
	open := strings.LastIndex(text, "(")
	if open < 0 || !strings.HasSuffix(text, ")") {
		return text, ""
	}
	name = strings.TrimSpace(text[:open])
	label = strings.TrimSpace(text[open+1 : len(text)-1])
	return name, label
}

func classifyLabel(label string) EnrollmentStatus {
	if status, ok := enrollmentLabels[strings.TrimSpace(label)]; ok {
		return status
	}
	return Withdrawn
}
