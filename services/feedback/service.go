package feedback

import (
	"context"
	"fmt"
	"time"

	"tutoring-controlplane/pkg/config"
	"tutoring-controlplane/pkg/errutil"
	"tutoring-controlplane/pkg/notify"
	"tutoring-controlplane/pkg/roster"
	"tutoring-controlplane/pkg/translate"
	"tutoring-controlplane/services/student"
	"tutoring-controlplane/services/synclog"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const runType = "feedback_sync"

const dateLayout = "2006-01-02"

type Service struct {
	db         *gorm.DB
	students   *student.Service
	repo       student.Repository
	roster     roster.Client
	translator translate.Translator
	notifier   notify.Notifier
	runs       *synclog.Service
	node       *snowflake.Node
	targetLang string
}

type ServiceParams struct {
	fx.In
	DB         *gorm.DB
	Students   *student.Service
	Repo       student.Repository
	Roster     roster.Client
	Translator translate.Translator
	Notifier   notify.Notifier
	Runs       *synclog.Service
	Node       *snowflake.Node
	Config     *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:         p.DB,
		students:   p.Students,
		repo:       p.Repo,
		roster:     p.Roster,
		translator: p.Translator,
		notifier:   p.Notifier,
		runs:       p.Runs,
		node:       p.Node,
		targetLang: p.Config.Translator.TargetLang,
	}
}

// Report is the sync response.
type Report struct {
	Success              bool     `json:"success"`
	SyncDate             string   `json:"sync_date"`
	FeedbackEntriesFound int      `json:"feedback_entries_found"`
	RecordsSynced        int      `json:"records_synced"`
	FeedbackTranslated   int      `json:"feedback_translated"`
	Duplicates           int      `json:"duplicates"`
	SoftFails            int      `json:"soft_fails"`
	Errors               []string `json:"errors"`
	DurationMs           int64    `json:"duration_ms"`
}

// Sync imports one day of lesson feedback for a tenant. The run is
// idempotent: lessons already persisted for (student, date, sequence) are
// counted as duplicates and skipped. Per-lesson failures are soft and never
// abort the run; only login or index fetch failures do.
func (s *Service) Sync(ctx context.Context, tenantID string, syncDate time.Time) (*Report, error) {
	run := synclog.NewRun(tenantID, runType, syncDate)

	creds, err := s.students.RosterCredentials(ctx, tenantID)
	if err != nil {
		s.runs.Record(ctx, run, true)
		return nil, err
	}

	session, err := s.roster.Authenticate(ctx, creds)
	if err != nil {
		s.runs.Record(ctx, run, true)
		return nil, errutil.BadGateway("roster platform login failed", errutil.WithErr(err))
	}

	refs, err := s.roster.FetchLessonIndex(ctx, session, syncDate)
	if err != nil {
		s.runs.Record(ctx, run, true)
		return nil, errutil.BadGateway("lesson index fetch failed", errutil.WithErr(err))
	}
	run.Scanned = len(refs)

	externalIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		externalIDs = append(externalIDs, ref.ExternalStudentID)
	}
	records := map[string]*student.StudentRecord{}
	if len(externalIDs) > 0 {
		records, err = s.repo.ListByExternalIDs(ctx, tenantID, externalIDs)
		if err != nil {
			s.runs.Record(ctx, run, true)
			return nil, errutil.Internal("failed to load student records", errutil.WithErr(err))
		}
	}

	date := syncDate.Format(dateLayout)

	for _, ref := range refs {
		record := records[ref.ExternalStudentID]
		if record == nil {
			// Lessons for students the tenant never imported are
			// expected; they do not count as failures.
			continue
		}

		exists, err := s.alreadyImported(ctx, record.ID, date, ref.SequenceID)
		if err != nil {
			run.SoftFails++
			run.AddError(fmt.Sprintf("lookup %s/%s: %v", ref.ExternalStudentID, ref.SequenceID, err))
			continue
		}
		if exists {
			run.Duplicates++
			continue
		}

		detail, err := s.roster.FetchLessonDetail(ctx, session, ref, syncDate)
		if err != nil {
			run.SoftFails++
			run.AddError(fmt.Sprintf("detail %s/%s: %v", ref.ExternalStudentID, ref.SequenceID, err))
			continue
		}

		row := &LessonFeedbackRecord{
			ID:                 s.node.Generate().String(),
			TenantID:           tenantID,
			StudentID:          record.ID,
			LessonDate:         date,
			ExternalSequenceID: ref.SequenceID,
			Attendance:         detail.Attendance,
			HomeworkStatus:     detail.HomeworkStatus,
			Corrections:        detail.Corrections,
			TeacherNote:        detail.TeacherNote,
		}

		// Translation is best effort: a failed or unconfigured translator
		// keeps the source text, never loses the record.
		if detail.TeacherNote != "" && s.translator.IsConfigured() {
			translated, err := s.translator.Translate(ctx, detail.TeacherNote, s.targetLang)
			if err != nil {
				run.SoftFails++
				run.AddError(fmt.Sprintf("translate %s/%s: %v", ref.ExternalStudentID, ref.SequenceID, err))
			} else {
				row.TranslatedNote = translated
				row.Translated = true
				run.Translated++
			}
		}

		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(row)
		if res.Error != nil {
			run.SoftFails++
			run.AddError(fmt.Sprintf("persist %s/%s: %v", ref.ExternalStudentID, ref.SequenceID, res.Error))
			continue
		}
		if res.RowsAffected == 0 {
			run.Duplicates++
			continue
		}
		run.Synced++

		event := notify.FeedbackCreatedEvent{
			TenantID:   tenantID,
			StudentID:  record.ID,
			LessonDate: date,
			SequenceID: ref.SequenceID,
			Translated: row.Translated,
			Timestamp:  time.Now(),
		}
		if err := s.notifier.Publish(ctx, notify.SubjectFeedbackCreated, event); err != nil {
			zap.L().Warn("failed to publish feedback notification",
				zap.String("tenant_id", tenantID),
				zap.String("student_id", record.ID),
				zap.Error(err),
			)
		}
	}

	s.runs.Record(ctx, run, false)

	errs := run.Errors()
	if errs == nil {
		errs = []string{}
	}
	return &Report{
		Success:              true,
		SyncDate:             date,
		FeedbackEntriesFound: run.Scanned,
		RecordsSynced:        run.Synced,
		FeedbackTranslated:   run.Translated,
		Duplicates:           run.Duplicates,
		SoftFails:            run.SoftFails,
		Errors:               errs,
		DurationMs:           run.DurationMs(),
	}, nil
}

func (s *Service) alreadyImported(ctx context.Context, studentID, date, sequenceID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&LessonFeedbackRecord{}).
		Where("student_id = ? AND lesson_date = ? AND external_sequence_id = ?", studentID, date, sequenceID).
		Count(&count).Error
	return count > 0, err
}

// ListByStudent returns a student's feedback history, newest lesson first.
func (s *Service) ListByStudent(ctx context.Context, tenantID, studentID string) ([]LessonFeedbackRecord, error) {
	var rows []LessonFeedbackRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("lesson_date DESC, external_sequence_id DESC").
		Find(&rows).Error
	return rows, err
}
