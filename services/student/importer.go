package student

import (
	"context"
	"errors"
	"time"

	"tutoring-controlplane/pkg/errutil"
	"tutoring-controlplane/pkg/notify"
	"tutoring-controlplane/services/license"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImportCase is the terminal classification of one imported student.
type ImportCase string

const (
	// CaseNew creates or reactivates a record and consumes one seat.
	CaseNew ImportCase = "new"
	// CaseAlreadyConnected is terminal: a connected student never
	// re-consumes a seat or gets a new code.
	CaseAlreadyConnected ImportCase = "already_connected"
	// CaseAlreadyManaged has a live unclaimed code; nothing to do.
	CaseAlreadyManaged ImportCase = "already_managed"
	// CaseInviteRefreshed replaces a missing, expired or claimed code on an
	// active record. No seat impact.
	CaseInviteRefreshed ImportCase = "invite_refreshed"
)

// ImportItem is one (external id, name) pair from the caller's batch.
type ImportItem struct {
	ExternalStudentID string `json:"external_student_id" binding:"required"`
	Name              string `json:"name" binding:"required"`
}

// ImportResult reports the outcome for one student.
type ImportResult struct {
	ExternalStudentID string     `json:"external_student_id"`
	Name              string     `json:"name"`
	InviteCode        string     `json:"invite_code"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Status            ImportCase `json:"status"`
}

// SkippedItem records a per-student persistence failure. Failure is local:
// the batch still returns a partial result once capacity is confirmed.
type SkippedItem struct {
	ExternalStudentID string `json:"external_student_id"`
	Reason            string `json:"reason"`
}

// ImportSummary is the batch-level response.
type ImportSummary struct {
	Success    bool           `json:"success"`
	Results    []ImportResult `json:"results"`
	NewCodes   int            `json:"new_codes"`
	NewManaged int            `json:"new_managed"`
	Refreshed  int            `json:"refreshed"`
	Total      int            `json:"total"`
	Skipped    []SkippedItem  `json:"skipped,omitempty"`
}

type plannedItem struct {
	item     ImportItem
	existing *StudentRecord
	cas      ImportCase
	// for already_managed: the live code and its expiry
	code      string
	expiresAt time.Time
}

// classify decides the terminal case for one student. is_connected is
// evaluated first, then active status, then code validity.
func classify(existing *StudentRecord, claimable bool) ImportCase {
	switch {
	case existing == nil:
		return CaseNew
	case existing.IsConnected:
		return CaseAlreadyConnected
	case existing.Status == StatusActive && claimable:
		return CaseAlreadyManaged
	case existing.Status == StatusActive:
		return CaseInviteRefreshed
	default:
		// inactive and not connected: reactivation, seat is re-consumed
		return CaseNew
	}
}

// Import classifies a batch of external students for one tenant and applies
// the per-case actions. Capacity is checked once for the whole batch before
// any write; an insufficient batch is rejected whole, with no partial seat
// consumption.
func (s *Service) Import(ctx context.Context, tenantID string, items []ImportItem) (*ImportSummary, error) {
	summary := &ImportSummary{Success: true, Results: []ImportResult{}}
	if len(items) == 0 {
		return summary, nil
	}

	externalIDs := make([]string, 0, len(items))
	for _, item := range items {
		externalIDs = append(externalIDs, item.ExternalStudentID)
	}

	existing, err := s.repo.ListByExternalIDs(ctx, tenantID, externalIDs)
	if err != nil {
		return nil, errutil.Internal("failed to load student records", errutil.WithErr(err))
	}

	planned := make([]plannedItem, 0, len(items))
	newCount := 0
	for _, item := range items {
		record := existing[item.ExternalStudentID]

		var claimable bool
		var expiresAt time.Time
		if record != nil && record.InviteCode != nil {
			claimable, expiresAt = s.invite.IsClaimable(ctx, *record.InviteCode)
		}

		p := plannedItem{item: item, existing: record, cas: classify(record, claimable)}
		if p.cas == CaseAlreadyManaged {
			p.code = *record.InviteCode
			p.expiresAt = expiresAt
		}
		if p.cas == CaseNew {
			newCount++
		}
		planned = append(planned, p)
	}

	// Capacity is advisory here and enforced atomically inside the
	// transaction; an unreachable ledger refuses the batch outright.
	seats, err := s.license.GetSeatStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if newCount > 0 && (!seats.HasLicense || newCount > seats.RemainingSeats) {
		return nil, capacityError(seats.RemainingSeats, newCount)
	}

	var invited []notify.StudentInvitedEvent

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.license.ReserveSeats(tx, tenantID, newCount); err != nil {
			if errors.Is(err, license.ErrNoSeats) {
				return capacityError(seats.RemainingSeats, newCount)
			}
			return err
		}

		issuer := s.invite.WithTx(tx)
		now := time.Now()

		for _, p := range planned {
			switch p.cas {
			case CaseAlreadyConnected:
				summary.Results = append(summary.Results, ImportResult{
					ExternalStudentID: p.item.ExternalStudentID,
					Name:              p.item.Name,
					Status:            CaseAlreadyConnected,
				})

			case CaseAlreadyManaged:
				expires := p.expiresAt
				summary.NewManaged++
				summary.Results = append(summary.Results, ImportResult{
					ExternalStudentID: p.item.ExternalStudentID,
					Name:              p.item.Name,
					InviteCode:        p.code,
					ExpiresAt:         &expires,
					Status:            CaseAlreadyManaged,
				})

			case CaseInviteRefreshed:
				code, err := issuer.IssueCode(ctx, tenantID)
				if err != nil {
					summary.Skipped = append(summary.Skipped, SkippedItem{
						ExternalStudentID: p.item.ExternalStudentID,
						Reason:            err.Error(),
					})
					continue
				}

				if err := tx.Model(p.existing).Updates(map[string]interface{}{
					"invite_code":    code.Code,
					"invite_sent_at": now,
				}).Error; err != nil {
					summary.Skipped = append(summary.Skipped, SkippedItem{
						ExternalStudentID: p.item.ExternalStudentID,
						Reason:            err.Error(),
					})
					continue
				}

				expires := code.ExpiresAt
				summary.Refreshed++
				summary.Results = append(summary.Results, ImportResult{
					ExternalStudentID: p.item.ExternalStudentID,
					Name:              p.item.Name,
					InviteCode:        code.Code,
					ExpiresAt:         &expires,
					Status:            CaseInviteRefreshed,
				})
				invited = append(invited, notify.StudentInvitedEvent{
					TenantID:          tenantID,
					ExternalStudentID: p.item.ExternalStudentID,
					InviteCode:        code.Code,
					ExpiresAt:         code.ExpiresAt,
					Timestamp:         now,
				})

			case CaseNew:
				code, err := issuer.IssueCode(ctx, tenantID)
				if err != nil {
					summary.Skipped = append(summary.Skipped, SkippedItem{
						ExternalStudentID: p.item.ExternalStudentID,
						Reason:            err.Error(),
					})
					continue
				}

				if p.existing != nil {
					if err := tx.Model(p.existing).Updates(map[string]interface{}{
						"status":         StatusActive,
						"display_name":   p.item.Name,
						"invite_code":    code.Code,
						"invite_sent_at": now,
					}).Error; err != nil {
						summary.Skipped = append(summary.Skipped, SkippedItem{
							ExternalStudentID: p.item.ExternalStudentID,
							Reason:            err.Error(),
						})
						continue
					}
				} else {
					codeText := code.Code
					record := &StudentRecord{
						ID:                s.node.Generate().String(),
						TenantID:          tenantID,
						ExternalStudentID: p.item.ExternalStudentID,
						DisplayName:       p.item.Name,
						Status:            StatusActive,
						InviteCode:        &codeText,
						InviteSentAt:      &now,
					}
					res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
					if res.Error != nil || res.RowsAffected == 0 {
						reason := "write conflict"
						if res.Error != nil {
							reason = res.Error.Error()
						}
						summary.Skipped = append(summary.Skipped, SkippedItem{
							ExternalStudentID: p.item.ExternalStudentID,
							Reason:            reason,
						})
						continue
					}
				}

				expires := code.ExpiresAt
				summary.NewCodes++
				summary.Results = append(summary.Results, ImportResult{
					ExternalStudentID: p.item.ExternalStudentID,
					Name:              p.item.Name,
					InviteCode:        code.Code,
					ExpiresAt:         &expires,
					Status:            CaseNew,
				})
				invited = append(invited, notify.StudentInvitedEvent{
					TenantID:          tenantID,
					ExternalStudentID: p.item.ExternalStudentID,
					InviteCode:        code.Code,
					ExpiresAt:         code.ExpiresAt,
					Timestamp:         now,
				})
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.Total = len(summary.Results)

	// Notification failures never affect the import result.
	for _, event := range invited {
		if err := s.notifier.Publish(ctx, notify.SubjectStudentInvited, event); err != nil {
			zap.L().Warn("failed to publish invite notification",
				zap.String("tenant_id", tenantID),
				zap.String("external_student_id", event.ExternalStudentID),
				zap.Error(err),
			)
		}
	}

	return summary, nil
}

func capacityError(remaining, requested int) error {
	return errutil.BadRequest("insufficient license seats", errutil.WithExtra(map[string]interface{}{
		"remaining_slots": remaining,
		"requested_new":   requested,
	}))
}
