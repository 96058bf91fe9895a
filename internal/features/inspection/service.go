package inspection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-permits/internal/features/notification"
	"go-permits/internal/features/permit"

	"go.uber.org/zap"
)

var (
	// ErrResultRequired guards findings: an inspection report without a
	// result is meaningless to the reviewing officer.
	ErrResultRequired = errors.New("inspection findings require a result")

	ErrWrongStatus = errors.New("operation not allowed in the inspection's current status")

	ErrNoFindings = errors.New("inspection has no recorded findings to undo")
)

// PermitWorkflow is the slice of the permit state machine the inspection
// workflow drives.
type PermitWorkflow interface {
	GetPermit(ctx context.Context, id string) (*permit.Permit, error)
	OnInspectionRecorded(ctx context.Context, id, notes, actorID string) (*permit.Permit, error)
	OnInspectionUndone(ctx context.Context, id, actorID string) (*permit.Permit, error)
}

type ScheduleInput struct {
	ApplicationID string    `json:"application_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Location      string    `json:"location"`
	InspectorID   string    `json:"inspector_id"`
}

type FindingsInput struct {
	Result  Result `json:"result"`
	Remarks string `json:"remarks"`
}

type InspectionService interface {
	Schedule(ctx context.Context, input ScheduleInput, actorID string) (*Inspection, error)
	GetInspection(ctx context.Context, id string) (*Inspection, error)
	GetByApplication(ctx context.Context, applicationID string) (*Inspection, error)
	ListInspections(ctx context.Context, status Status) ([]Inspection, error)

	Reschedule(ctx context.Context, id string, newDate time.Time, actorID string) (*Inspection, error)
	Cancel(ctx context.Context, id, actorID string) (*Inspection, error)
	RecordFindings(ctx context.Context, id string, input FindingsInput, actorID string) (*Inspection, error)
	UndoInspectionReport(ctx context.Context, id, actorID string) (*Inspection, error)
}

type InspectionServiceImpl struct {
	repo    InspectionRepository
	permits PermitWorkflow
	router  notification.Router
	logger  *zap.Logger
}

func NewInspectionService(repo InspectionRepository, permits PermitWorkflow, router notification.Router, logger *zap.Logger) InspectionService {
	return &InspectionServiceImpl{
		repo:    repo,
		permits: permits,
		router:  router,
		logger:  logger,
	}
}

// Schedule creates an inspection for a permit sitting in the field-inspection
// stage and informs the applicant of the visit.
func (s *InspectionServiceImpl) Schedule(ctx context.Context, input ScheduleInput, actorID string) (*Inspection, error) {
	target, err := s.permits.GetPermit(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if target.CurrentStage != permit.StageForInspectionByTechnicalStaff {
		return nil, fmt.Errorf("permit is not at the inspection stage (currently %s)", target.CurrentStage)
	}
	if input.ScheduledDate.IsZero() {
		return nil, errors.New("scheduled date is required")
	}

	inspection := &Inspection{
		ApplicationID: target.ID,
		ScheduledDate: input.ScheduledDate,
		Location:      input.Location,
		InspectorID:   input.InspectorID,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, inspection); err != nil {
		return nil, err
	}

	s.fire(ctx, func() error {
		return s.router.NotifyApplicant(ctx, target.ApplicantID, notification.EventInspectionScheduled, notification.Metadata{
			ApplicationID: target.ID.Hex(),
			Reference:     target.ApplicationNumber,
			Remarks:       "Scheduled for " + input.ScheduledDate.Format("January 2, 2006"),
		})
	})
	return inspection, nil
}

func (s *InspectionServiceImpl) GetInspection(ctx context.Context, id string) (*Inspection, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *InspectionServiceImpl) GetByApplication(ctx context.Context, applicationID string) (*Inspection, error) {
	target, err := s.permits.GetPermit(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByApplication(ctx, target.ID)
}

func (s *InspectionServiceImpl) ListInspections(ctx context.Context, status Status) ([]Inspection, error) {
	return s.repo.List(ctx, status)
}

func (s *InspectionServiceImpl) Reschedule(ctx context.Context, id string, newDate time.Time, actorID string) (*Inspection, error) {
	inspection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inspection.Status != StatusPending && inspection.Status != StatusRescheduled {
		return nil, ErrWrongStatus
	}
	if newDate.IsZero() {
		return nil, errors.New("new scheduled date is required")
	}

	inspection.ScheduledDate = newDate
	inspection.Status = StatusRescheduled
	if err := s.repo.Update(ctx, inspection); err != nil {
		return nil, err
	}

	s.notifyApplicant(ctx, inspection, notification.EventInspectionScheduled,
		"Rescheduled to "+newDate.Format("January 2, 2006"))
	return inspection, nil
}

func (s *InspectionServiceImpl) Cancel(ctx context.Context, id, actorID string) (*Inspection, error) {
	inspection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inspection.Status == StatusCompleted {
		return nil, ErrWrongStatus
	}

	inspection.Status = StatusCancelled
	if err := s.repo.Update(ctx, inspection); err != nil {
		return nil, err
	}
	return inspection, nil
}

// RecordFindings closes the inspection and pushes the permit back to the
// PENR/CENR officer with the inspection gate set.
func (s *InspectionServiceImpl) RecordFindings(ctx context.Context, id string, input FindingsInput, actorID string) (*Inspection, error) {
	inspection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inspection.Status != StatusPending && inspection.Status != StatusRescheduled {
		return nil, ErrWrongStatus
	}
	if input.Result == "" {
		return nil, ErrResultRequired
	}
	if !ValidResult(input.Result) {
		return nil, fmt.Errorf("unknown inspection result %q", input.Result)
	}

	inspection.Findings = &Findings{
		Result:     input.Result,
		Remarks:    input.Remarks,
		RecordedAt: time.Now(),
		RecordedBy: actorID,
	}
	inspection.Status = StatusCompleted
	if err := s.repo.Update(ctx, inspection); err != nil {
		return nil, err
	}

	notes := string(input.Result)
	if input.Remarks != "" {
		notes = notes + ": " + input.Remarks
	}
	if _, err := s.permits.OnInspectionRecorded(ctx, inspection.ApplicationID.Hex(), notes, actorID); err != nil {
		// Roll the inspection back so the report can be re-recorded once the
		// permit is in the right stage.
		inspection.Findings = nil
		inspection.Status = StatusPending
		if updateErr := s.repo.Update(ctx, inspection); updateErr != nil {
			s.logger.Error("failed to roll back inspection after permit rejection",
				zap.String("inspectionId", inspection.ID.Hex()),
				zap.Error(updateErr))
		}
		return nil, err
	}
	return inspection, nil
}

// UndoInspectionReport reopens a completed inspection. The permit-side guard
// rejects the undo once the officer has approved or payment has started.
func (s *InspectionServiceImpl) UndoInspectionReport(ctx context.Context, id, actorID string) (*Inspection, error) {
	inspection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inspection.Status != StatusCompleted || inspection.Findings == nil {
		return nil, ErrNoFindings
	}

	if _, err := s.permits.OnInspectionUndone(ctx, inspection.ApplicationID.Hex(), actorID); err != nil {
		return nil, err
	}

	inspection.Findings = nil
	inspection.Status = StatusPending
	if err := s.repo.Update(ctx, inspection); err != nil {
		return nil, err
	}
	return inspection, nil
}

func (s *InspectionServiceImpl) notifyApplicant(ctx context.Context, inspection *Inspection, event notification.EventType, remarks string) {
	target, err := s.permits.GetPermit(ctx, inspection.ApplicationID.Hex())
	if err != nil {
		s.logger.Error("cannot resolve applicant for notification",
			zap.String("inspectionId", inspection.ID.Hex()),
			zap.Error(err))
		return
	}
	s.fire(ctx, func() error {
		return s.router.NotifyApplicant(ctx, target.ApplicantID, event, notification.Metadata{
			ApplicationID: target.ID.Hex(),
			Reference:     target.ApplicationNumber,
			Remarks:       remarks,
		})
	})
}

func (s *InspectionServiceImpl) fire(ctx context.Context, notify func() error) {
	if err := notify(); err != nil {
		s.logger.Error("notification dispatch failed", zap.Error(err))
	}
}
