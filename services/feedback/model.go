package feedback

import (
	"time"
)

// LessonFeedbackRecord is one imported lesson feedback. The composite unique
// index makes imports idempotent: re-running a sync for the same day can
// never duplicate a lesson, because the platform's sequence id disambiguates
// multiple lessons per student per day.
type LessonFeedbackRecord struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	TenantID           string    `gorm:"column:tenant_id;index;not null"`
	StudentID          string    `gorm:"column:student_id;uniqueIndex:idx_lesson_identity;not null"`
	LessonDate         string    `gorm:"column:lesson_date;uniqueIndex:idx_lesson_identity;not null"`
	ExternalSequenceID string    `gorm:"column:external_sequence_id;uniqueIndex:idx_lesson_identity;not null"`
	Attendance         string    `gorm:"column:attendance"`
	HomeworkStatus     string    `gorm:"column:homework_status"`
	Corrections        string    `gorm:"column:corrections"`
	TeacherNote        string    `gorm:"column:teacher_note"`
	TranslatedNote     string    `gorm:"column:translated_note"`
	Translated         bool      `gorm:"column:translated;not null;default:false"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LessonFeedbackRecord) TableName() string { return "lesson_feedback_records" }
