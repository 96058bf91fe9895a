package permit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-permits/internal/features/account"
	"go-permits/internal/features/notification"
	"go-permits/internal/features/sequence"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed from the permit's current stage")
	ErrNotSubmittable    = errors.New("only Draft or Returned permits may be submitted")
	ErrNotUnsubmittable  = errors.New("only Submitted permits still under technical review may be unsubmitted")
	ErrTerminal          = errors.New("permit is in a terminal state")
)

type CreatePermitInput struct {
	ApplicationType ApplicationType `json:"application_type"`
	ApplicantID     string          `json:"applicant_id"`
}

// PermitService drives the stage/status/flag state machine. Every mutation
// commits the permit document atomically and then fires the notification set
// for the entered stage; notification failures after commit are logged, never
// rolled back.
type PermitService interface {
	CreatePermit(ctx context.Context, input CreatePermitInput) (*Permit, error)
	GetPermit(ctx context.Context, id string) (*Permit, error)
	ListPermits(ctx context.Context, filter ListFilter) ([]Permit, error)

	SubmitPermit(ctx context.Context, id, actorID string) (*Permit, error)
	UnsubmitPermit(ctx context.Context, id, actorID string) (*Permit, error)
	ReviewApplication(ctx context.Context, id, actorID string) (*Permit, error)
	AcceptApplication(ctx context.Context, id, notes, actorID string) (*Permit, error)
	ReturnApplication(ctx context.Context, id, notes, actorID string) (*Permit, error)
	RecordApplication(ctx context.Context, id, notes, actorID string) (*Permit, error)
	UndoRecordApplication(ctx context.Context, id, notes, actorID string) (*Permit, error)
	ChiefReview(ctx context.Context, id, notes, actorID string) (*Permit, error)
	AcceptByPENRCENROfficer(ctx context.Context, id, notes, actorID string) (*Permit, error)
	UndoAcceptanceCENRPENROfficer(ctx context.Context, id, notes, actorID string) (*Permit, error)
	ApproveByPENRCENROfficer(ctx context.Context, id, notes, actorID string) (*Permit, error)
	RejectApplication(ctx context.Context, id, notes, actorID string) (*Permit, error)
	UpdatePermitStage(ctx context.Context, id string, stage Stage, status Status, notes, actorID string, flagUpdates map[string]bool) (*Permit, error)
	ReleasePermit(ctx context.Context, id, actorID string) (*Permit, error)

	// Hooks for the sibling workflows (OOP, inspection, certificate).
	OnOOPCreated(ctx context.Context, id, billNo, actorID string) (*Permit, error)
	UndoOOPCreation(ctx context.Context, id, actorID string) (*Permit, error)
	OnORIssued(ctx context.Context, id, actorID string) (*Permit, error)
	OnCertificateCreated(ctx context.Context, id, actorID string) (*Permit, error)
	OnInspectionRecorded(ctx context.Context, id, notes, actorID string) (*Permit, error)
	OnInspectionUndone(ctx context.Context, id, actorID string) (*Permit, error)
	MarkPendingRelease(ctx context.Context, id, actorID string) (*Permit, error)
	ExpirePermit(ctx context.Context, id string) error
}

type PermitServiceImpl struct {
	repo      PermitRepository
	generator sequence.Generator
	router    notification.Router
	logger    *zap.Logger
}

func NewPermitService(repo PermitRepository, generator sequence.Generator, router notification.Router, logger *zap.Logger) PermitService {
	return &PermitServiceImpl{
		repo:      repo,
		generator: generator,
		router:    router,
		logger:    logger,
	}
}

func (s *PermitServiceImpl) CreatePermit(ctx context.Context, input CreatePermitInput) (*Permit, error) {
	if !ValidApplicationType(input.ApplicationType) {
		return nil, fmt.Errorf("unknown application type %q", input.ApplicationType)
	}
	applicantID, err := primitive.ObjectIDFromHex(input.ApplicantID)
	if err != nil {
		return nil, errors.New("invalid applicant id")
	}

	// The number is minted before the insert; a generator failure aborts the
	// whole creation so no permit ever exists without a unique number.
	applicationNumber, err := s.generator.NextApplicationNumber(ctx, string(input.ApplicationType), time.Now())
	if err != nil {
		return nil, err
	}

	permit := &Permit{
		ApplicationType:   input.ApplicationType,
		ApplicationNumber: applicationNumber,
		ApplicantID:       applicantID,
		Status:            StatusDraft,
		CurrentStage:      StageDraft,
		History: []HistoryEntry{{
			Stage:     StageDraft,
			Status:    StatusDraft,
			Timestamp: time.Now(),
			Notes:     "Application created",
			ActorID:   input.ApplicantID,
		}},
	}

	if err := s.repo.Create(ctx, permit); err != nil {
		return nil, err
	}
	return permit, nil
}

func (s *PermitServiceImpl) GetPermit(ctx context.Context, id string) (*Permit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PermitServiceImpl) ListPermits(ctx context.Context, filter ListFilter) ([]Permit, error) {
	return s.repo.List(ctx, filter)
}

func (s *PermitServiceImpl) SubmitPermit(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.Status != StatusDraft && permit.Status != StatusReturned {
		return nil, ErrNotSubmittable
	}

	// Resubmission resumes at the stage that returned the application; a
	// fresh draft enters technical review.
	var target Stage
	switch permit.CurrentStage {
	case StageDraft, StageReturnedByTechnicalStaff:
		target = StageTechnicalStaffReview
	case StageReturnedByReceivingClerk:
		target = StageReceivingClerkReview
	case StageReturnedByPENRCENROfficer:
		target = StageCENRPENRReview
	default:
		return nil, ErrNotSubmittable
	}

	now := time.Now()
	return s.transition(ctx, permit, transitionRequest{
		stage:       target,
		status:      StatusSubmitted,
		notes:       "Application submitted",
		actorID:     actorID,
		submittedAt: &now,
	})
}

func (s *PermitServiceImpl) UnsubmitPermit(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Unsubmission is only possible while the application still sits with
	// technical staff; once a downstream actor has it, withdrawal would
	// invalidate their work.
	if permit.Status != StatusSubmitted || permit.CurrentStage != StageTechnicalStaffReview {
		return nil, ErrNotUnsubmittable
	}

	updated, err := s.transition(ctx, permit, transitionRequest{
		stage:       StageDraft,
		status:      StatusDraft,
		notes:       "Application unsubmitted by applicant",
		actorID:     actorID,
		skipEvents:  true,
	})
	if err != nil {
		return nil, err
	}

	s.fire(ctx, func() error {
		return s.router.NotifyRole(ctx, account.RoleTechnicalStaff, notification.EventApplicationUnsubmitted, s.metadata(updated, ""))
	})
	return updated, nil
}

func (s *PermitServiceImpl) ReviewApplication(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageTechnicalStaffReview {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   StageTechnicalStaffReview,
		status:  StatusInProgress,
		notes:   "Application under technical review",
		actorID: actorID,
	})
}

func (s *PermitServiceImpl) AcceptApplication(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageTechnicalStaffReview {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   StageForRecordByReceivingClerk,
		status:  StatusAccepted,
		notes:   notes,
		actorID: actorID,
		mutate: func(g *Gates) error {
			g.AcceptedByTechnicalStaff = true
			return nil
		},
	})
}

func (s *PermitServiceImpl) ReturnApplication(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var target Stage
	switch permit.CurrentStage {
	case StageTechnicalStaffReview:
		target = StageReturnedByTechnicalStaff
	case StageForRecordByReceivingClerk, StageReceivingClerkReview:
		target = StageReturnedByReceivingClerk
	case StageCENRPENRReview:
		target = StageReturnedByPENRCENROfficer
	default:
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   target,
		status:  StatusReturned,
		notes:   notes,
		actorID: actorID,
	})
}

func (s *PermitServiceImpl) RecordApplication(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageForRecordByReceivingClerk && permit.CurrentStage != StageReceivingClerkReview {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   StageChiefRPSReview,
		status:  StatusInProgress,
		notes:   notes,
		actorID: actorID,
		mutate: func(g *Gates) error {
			g.RecordedByReceivingClerk = true
			return nil
		},
	})
}

func (s *PermitServiceImpl) UndoRecordApplication(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageChiefRPSReview {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:      StageForRecordByReceivingClerk,
		status:     StatusInProgress,
		notes:      notes,
		actorID:    actorID,
		skipEvents: true,
		mutate:     func(g *Gates) error { return g.UndoRecordApplication() },
	})
}

func (s *PermitServiceImpl) ChiefReview(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageChiefRPSReview {
		return nil, ErrInvalidTransition
	}

	updated, err := s.transition(ctx, permit, transitionRequest{
		stage:   StageCENRPENRReview,
		status:  StatusInProgress,
		notes:   notes,
		actorID: actorID,
		mutate: func(g *Gates) error {
			g.ReviewedByChief = true
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.fire(ctx, func() error {
		return s.router.NotifyApplicant(ctx, updated.ApplicantID, notification.EventApplicationReviewedByChief, s.metadata(updated, notes))
	})
	return updated, nil
}

func (s *PermitServiceImpl) AcceptByPENRCENROfficer(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageCENRPENRReview {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   StageForInspectionByTechnicalStaff,
		status:  StatusAccepted,
		notes:   notes,
		actorID: actorID,
		mutate: func(g *Gates) error {
			g.AcceptedByPENRCENROfficer = true
			return nil
		},
	})
}

func (s *PermitServiceImpl) UndoAcceptanceCENRPENROfficer(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageForInspectionByTechnicalStaff {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:      StageCENRPENRReview,
		status:     StatusInProgress,
		notes:      notes,
		actorID:    actorID,
		skipEvents: true,
		mutate:     func(g *Gates) error { return g.UndoAcceptanceCENRPENROfficer() },
	})
}

func (s *PermitServiceImpl) ApproveByPENRCENROfficer(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageCENRPENRReview {
		return nil, ErrInvalidTransition
	}
	if !permit.Gates.AcceptedByPENRCENROfficer || !permit.Gates.HasInspectionReport {
		return nil, errors.New("approval requires prior acceptance and a recorded inspection report")
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   StageAwaitingOOP,
		status:  StatusApproved,
		notes:   notes,
		actorID: actorID,
		mutate: func(g *Gates) error {
			g.ApprovedByPENRCENROfficer = true
			g.AwaitingOOP = true
			return nil
		},
	})
}

func (s *PermitServiceImpl) RejectApplication(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.Terminal() {
		return nil, ErrTerminal
	}

	updated, err := s.transition(ctx, permit, transitionRequest{
		stage:      permit.CurrentStage,
		status:     StatusRejected,
		notes:      notes,
		actorID:    actorID,
		skipEvents: true,
	})
	if err != nil {
		return nil, err
	}

	s.fire(ctx, func() error {
		return s.router.NotifyApplicant(ctx, updated.ApplicantID, notification.EventApplicationRejected, s.metadata(updated, notes))
	})
	return updated, nil
}

// UpdatePermitStage is the generic guarded transition. Flag updates are
// forward-only; clearing a flag requires the matching undo operation.
func (s *PermitServiceImpl) UpdatePermitStage(ctx context.Context, id string, stage Stage, status Status, notes, actorID string, flagUpdates map[string]bool) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   stage,
		status:  status,
		notes:   notes,
		actorID: actorID,
		mutate: func(g *Gates) error {
			for name, value := range flagUpdates {
				if err := g.Set(name, value); err != nil {
					return err
				}
			}
			return nil
		},
	})
}

func (s *PermitServiceImpl) ReleasePermit(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StagePendingRelease {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   StageReleased,
		status:  StatusCompleted,
		notes:   "Permit released to applicant",
		actorID: actorID,
	})
}

func (s *PermitServiceImpl) OnOOPCreated(ctx context.Context, id, billNo, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !permit.Gates.AwaitingOOP || permit.Gates.OOPCreated {
		return nil, errors.New("permit is not awaiting an Order of Payment")
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:      permit.CurrentStage,
		status:     permit.Status,
		notes:      "Order of Payment " + billNo + " created",
		actorID:    actorID,
		skipEvents: true,
		mutate: func(g *Gates) error {
			g.AwaitingOOP = false
			g.OOPCreated = true
			return nil
		},
	})
}

func (s *PermitServiceImpl) UndoOOPCreation(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:      permit.CurrentStage,
		status:     permit.Status,
		notes:      "Order of Payment creation undone",
		actorID:    actorID,
		skipEvents: true,
		mutate:     func(g *Gates) error { return g.UndoOOPCreation() },
	})
}

func (s *PermitServiceImpl) OnORIssued(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !permit.Gates.OOPCreated {
		return nil, errors.New("no Order of Payment exists for this permit")
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:      permit.CurrentStage,
		status:     permit.Status,
		notes:      "Official Receipt issued; awaiting permit creation",
		actorID:    actorID,
		skipEvents: true,
		mutate: func(g *Gates) error {
			g.AwaitingPermitCreation = true
			return nil
		},
	})
}

func (s *PermitServiceImpl) OnCertificateCreated(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !permit.Gates.AwaitingPermitCreation {
		return nil, errors.New("permit is not awaiting certificate creation")
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:      permit.CurrentStage,
		status:     permit.Status,
		notes:      "Certificate generated",
		actorID:    actorID,
		skipEvents: true,
		mutate: func(g *Gates) error {
			g.AwaitingPermitCreation = false
			g.PermitCreated = true
			return nil
		},
	})
}

func (s *PermitServiceImpl) OnInspectionRecorded(ctx context.Context, id, notes, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageForInspectionByTechnicalStaff {
		return nil, ErrInvalidTransition
	}

	updated, err := s.transition(ctx, permit, transitionRequest{
		stage:      StageCENRPENRReview,
		status:     StatusInProgress,
		notes:      notes,
		actorID:    actorID,
		skipEvents: true,
		mutate: func(g *Gates) error {
			g.HasInspectionReport = true
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.fire(ctx, func() error {
		return s.router.NotifyRole(ctx, account.RolePENRCENROfficer, notification.EventInspectionCompleted, s.metadata(updated, notes))
	})
	return updated, nil
}

func (s *PermitServiceImpl) OnInspectionUndone(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageCENRPENRReview {
		return nil, ErrInvalidTransition
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:      StageForInspectionByTechnicalStaff,
		status:     StatusInProgress,
		notes:      "Inspection report undone",
		actorID:    actorID,
		skipEvents: true,
		mutate:     func(g *Gates) error { return g.UndoInspectionReport() },
	})
}

func (s *PermitServiceImpl) MarkPendingRelease(ctx context.Context, id, actorID string) (*Permit, error) {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if permit.CurrentStage != StageAwaitingOOP {
		return nil, ErrInvalidTransition
	}
	if !permit.Gates.PermitCreated {
		return nil, errors.New("certificate has not been created for this permit")
	}

	return s.transition(ctx, permit, transitionRequest{
		stage:   StagePendingRelease,
		status:  StatusApproved,
		notes:   "Permit signed and ready for release",
		actorID: actorID,
	})
}

// ExpirePermit is called by the certificate sweep. Already-expired permits
// are skipped so the sweep stays idempotent.
func (s *PermitServiceImpl) ExpirePermit(ctx context.Context, id string) error {
	permit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if permit.CurrentStage == StageExpired || permit.Status == StatusExpired {
		return nil
	}
	if permit.CurrentStage != StageReleased {
		return ErrInvalidTransition
	}

	_, err = s.transition(ctx, permit, transitionRequest{
		stage:   StageExpired,
		status:  StatusExpired,
		notes:   "Permit expired",
		actorID: "system",
	})
	return err
}

type transitionRequest struct {
	stage       Stage
	status      Status
	notes       string
	actorID     string
	submittedAt *time.Time
	skipEvents  bool
	mutate      func(*Gates) error
}

// transition validates the stage edge, applies gate mutations, appends
// exactly one history entry, commits everything as one document write, and
// then fires the entered stage's notification set.
func (s *PermitServiceImpl) transition(ctx context.Context, permit *Permit, req transitionRequest) (*Permit, error) {
	if permit.Status == StatusRejected || permit.CurrentStage == StageExpired {
		return nil, ErrTerminal
	}

	stageChanged := req.stage != permit.CurrentStage
	if stageChanged && !canTransition(permit.CurrentStage, req.stage) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, permit.CurrentStage, req.stage)
	}

	gates := permit.Gates
	if req.mutate != nil {
		if err := req.mutate(&gates); err != nil {
			return nil, err
		}
	}

	entry := HistoryEntry{
		Stage:     req.stage,
		Status:    req.status,
		Timestamp: time.Now(),
		Notes:     req.notes,
		ActorID:   req.actorID,
	}

	update := TransitionUpdate{
		Stage:            req.stage,
		Status:           req.status,
		Gates:            gates,
		DateOfSubmission: req.submittedAt,
		Entry:            entry,
	}
	if err := s.repo.ApplyTransition(ctx, permit.ID, update); err != nil {
		return nil, err
	}

	permit.CurrentStage = req.stage
	permit.Status = req.status
	permit.Gates = gates
	permit.LastUpdated = entry.Timestamp
	if req.submittedAt != nil {
		permit.DateOfSubmission = req.submittedAt
	}
	permit.History = append(permit.History, entry)

	if stageChanged && !req.skipEvents {
		s.fireStageEvents(ctx, permit, req.notes)
	}
	return permit, nil
}

// fireStageEvents dispatches the static stage→event table for the stage the
// permit just entered. The permit write is already committed; failures here
// are logged and surfaced to operators through the notification log, not
// rolled back.
func (s *PermitServiceImpl) fireStageEvents(ctx context.Context, permit *Permit, notes string) {
	events, ok := stageEvents[permit.CurrentStage]
	if !ok {
		return
	}

	meta := s.metadata(permit, notes)
	if events.applicant != "" {
		s.fire(ctx, func() error {
			return s.router.NotifyApplicant(ctx, permit.ApplicantID, events.applicant, meta)
		})
	}
	for _, re := range events.roles {
		re := re
		roleMeta := meta
		roleMeta.ActionRequired = true
		s.fire(ctx, func() error {
			return s.router.NotifyRole(ctx, re.role, re.event, roleMeta)
		})
	}
}

func (s *PermitServiceImpl) fire(ctx context.Context, notify func() error) {
	if err := notify(); err != nil {
		s.logger.Error("notification dispatch failed", zap.Error(err))
	}
}

func (s *PermitServiceImpl) metadata(permit *Permit, remarks string) notification.Metadata {
	return notification.Metadata{
		ApplicationID: permit.ID.Hex(),
		Reference:     permit.ApplicationNumber,
		Stage:         string(permit.CurrentStage),
		Remarks:       remarks,
	}
}
