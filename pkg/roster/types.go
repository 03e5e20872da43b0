package roster

import "net/http"

// Credentials authenticate a tenant against the legacy roster platform.
type Credentials struct {
	Username string
	Password string
}

// Session is the opaque authenticated state returned by Authenticate. It is
// threaded explicitly through every subsequent call and never reconstructed
// from raw headers downstream.
type Session struct {
	cookies []*http.Cookie
}

// Valid reports whether the platform actually handed back session state.
// A login response without cookies is a failed login regardless of status.
func (s Session) Valid() bool {
	return len(s.cookies) > 0
}

// EnrollmentStatus classifies the label shown next to a student on the
// roster page.
type EnrollmentStatus string

const (
	// Enrolled students are actively taking lessons.
	Enrolled EnrollmentStatus = "enrolled"
	// Suspended students paused lessons but retain their entitlement.
	Suspended EnrollmentStatus = "suspended"
	// Withdrawn students left the platform and are not imported.
	Withdrawn EnrollmentStatus = "withdrawn"
)

// Entry is one student row parsed from the roster page.
type Entry struct {
	ExternalID  string
	DisplayName string
	Enrollment  EnrollmentStatus
}

// LessonRef identifies one lesson entry on the day's lesson index page.
type LessonRef struct {
	ExternalStudentID string
	SequenceID        string
}

// LessonDetail holds the labeled fields scraped from a lesson feedback page.
// A field the parser cannot locate stays empty; that is never an error.
type LessonDetail struct {
	Attendance     string
	HomeworkStatus string
	Corrections    string
	TeacherNote    string
}
