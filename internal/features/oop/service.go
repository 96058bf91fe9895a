package oop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-permits/internal/features/account"
	"go-permits/internal/features/notification"
	"go-permits/internal/features/permit"
	"go-permits/internal/features/sequence"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrSignaturesRequired guards forwarding: both the Chief RPS and the
	// Chief TSD signature images must be on file.
	ErrSignaturesRequired = errors.New("both RPS and TSD signatures are required")

	ErrNotCompletedOOP = errors.New("official receipt requires a Completed OOP")

	ErrWrongStatus = errors.New("operation not allowed in the OOP's current status")

	// ErrSignaturesCollected blocks undoing an OOP once any signatory has
	// signed it.
	ErrSignaturesCollected = errors.New("OOP already carries a signature and can no longer be undone")

	ErrNoItems = errors.New("an order of payment needs at least one line item")
)

// PermitWorkflow is the slice of the permit state machine the payment
// workflow drives.
type PermitWorkflow interface {
	GetPermit(ctx context.Context, id string) (*permit.Permit, error)
	OnOOPCreated(ctx context.Context, id, billNo, actorID string) (*permit.Permit, error)
	UndoOOPCreation(ctx context.Context, id, actorID string) (*permit.Permit, error)
	OnORIssued(ctx context.Context, id, actorID string) (*permit.Permit, error)
}

type CreateOOPInput struct {
	ApplicationID string `json:"application_id"`
	Items         []Item `json:"items"`
}

type PaymentProofInput struct {
	TransactionID   string  `json:"transaction_id"`
	ReferenceNumber string  `json:"reference_number"`
	Amount          float64 `json:"amount"`
	Notes           string  `json:"notes"`
}

type IssueORInput struct {
	ORNumber string `json:"or_number"`
}

type OOPService interface {
	CreateOOP(ctx context.Context, input CreateOOPInput, actorID string) (*OOP, error)
	GetOOP(ctx context.Context, id string) (*OOP, error)
	GetByApplication(ctx context.Context, applicationID string) (*OOP, error)
	ListOOPs(ctx context.Context, status OOPStatus) ([]OOP, error)

	UpdateSignature(ctx context.Context, id string, kind SignatureKind, image, actorID string) (*OOP, error)
	ForwardToAccountant(ctx context.Context, id, actorID string) (*OOP, error)
	ApproveOOP(ctx context.Context, id, notes, actorID string) (*OOP, error)
	SubmitPaymentProof(ctx context.Context, id string, input PaymentProofInput, actorID string) (*OOP, error)
	ReviewPaymentProof(ctx context.Context, id string, approved bool, notes, actorID string) (*OOP, error)
	GenerateOR(ctx context.Context, id string, input IssueORInput, actorID string) (*OOP, error)
	UndoOOPCreation(ctx context.Context, id, actorID string) error
}

type OOPServiceImpl struct {
	repo      OOPRepository
	permits   PermitWorkflow
	generator sequence.Generator
	router    notification.Router
	logger    *zap.Logger
}

func NewOOPService(repo OOPRepository, permits PermitWorkflow, generator sequence.Generator, router notification.Router, logger *zap.Logger) OOPService {
	return &OOPServiceImpl{
		repo:      repo,
		permits:   permits,
		generator: generator,
		router:    router,
		logger:    logger,
	}
}

// CreateOOP mints the bill number, persists the OOP and flips the permit's
// payment gates. A generator failure aborts before anything is stored; a gate
// failure deletes the just-created OOP so the two documents never disagree.
func (s *OOPServiceImpl) CreateOOP(ctx context.Context, input CreateOOPInput, actorID string) (*OOP, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range input.Items {
		if item.Amount <= 0 {
			return nil, fmt.Errorf("item %q has a non-positive amount", item.Description)
		}
	}

	target, err := s.permits.GetPermit(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !target.Gates.AwaitingOOP {
		return nil, errors.New("permit is not awaiting an Order of Payment")
	}

	billNo, err := s.generator.NextBillNumber(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	oop := &OOP{
		BillNo:        billNo,
		ApplicationID: target.ID,
		Items:         input.Items,
		Status:        StatusPendingSignature,
	}
	if err := s.repo.Create(ctx, oop); err != nil {
		return nil, err
	}

	if _, err := s.permits.OnOOPCreated(ctx, input.ApplicationID, billNo, actorID); err != nil {
		if delErr := s.repo.Delete(ctx, oop.ID); delErr != nil {
			s.logger.Error("orphaned OOP after gate failure",
				zap.String("oopId", oop.ID.Hex()),
				zap.Error(delErr))
		}
		return nil, err
	}

	meta := s.metadata(oop, "")
	s.fire(ctx, func() error {
		return s.router.NotifyApplicant(ctx, target.ApplicantID, notification.EventOOPCreated, meta)
	})
	signMeta := meta
	signMeta.ActionRequired = true
	for _, role := range []account.Role{account.RoleChiefRPS, account.RoleChiefTSD} {
		role := role
		s.fire(ctx, func() error {
			return s.router.NotifyRole(ctx, role, notification.EventOOPPendingSignature, signMeta)
		})
	}
	return oop, nil
}

func (s *OOPServiceImpl) GetOOP(ctx context.Context, id string) (*OOP, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OOPServiceImpl) GetByApplication(ctx context.Context, applicationID string) (*OOP, error) {
	objID, err := primitive.ObjectIDFromHex(applicationID)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByApplication(ctx, objID)
}

func (s *OOPServiceImpl) ListOOPs(ctx context.Context, status OOPStatus) ([]OOP, error) {
	return s.repo.List(ctx, status)
}

func (s *OOPServiceImpl) UpdateSignature(ctx context.Context, id string, kind SignatureKind, image, actorID string) (*OOP, error) {
	oop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if oop.Status != StatusPendingSignature {
		return nil, ErrWrongStatus
	}
	if image == "" {
		return nil, errors.New("signature image is empty")
	}

	switch kind {
	case SignatureRPS:
		oop.RPSSignatureImage = image
	case SignatureTSD:
		oop.TSDSignatureImage = image
	default:
		return nil, fmt.Errorf("unknown signature kind %q", kind)
	}
	oop.SignedByTwoSignatories = oop.RPSSignatureImage != "" && oop.TSDSignatureImage != ""

	if err := s.repo.Update(ctx, oop); err != nil {
		return nil, err
	}
	return oop, nil
}

// ForwardToAccountant moves a fully signed OOP into the accountant's queue.
// Signature dates are stamped here and the tracking number is minted exactly
// once; a retry after a partial failure reuses the existing number.
func (s *OOPServiceImpl) ForwardToAccountant(ctx context.Context, id, actorID string) (*OOP, error) {
	oop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if oop.Status != StatusPendingSignature {
		return nil, ErrWrongStatus
	}
	if oop.RPSSignatureImage == "" || oop.TSDSignatureImage == "" {
		return nil, ErrSignaturesRequired
	}

	now := time.Now()
	if oop.RPSSignedAt == nil {
		oop.RPSSignedAt = &now
	}
	if oop.TSDSignedAt == nil {
		oop.TSDSignedAt = &now
	}
	oop.SignedByTwoSignatories = true

	if oop.Tracking == nil || oop.Tracking.TrackingNo == "" {
		trackingNo, err := s.generator.NextTrackingNumber(ctx, now)
		if err != nil {
			return nil, err
		}
		oop.Tracking = &Tracking{TrackingNo: trackingNo, ReceivedAt: &now}
	}

	oop.Status = StatusForApproval
	if err := s.repo.Update(ctx, oop); err != nil {
		return nil, err
	}

	meta := s.metadata(oop, "")
	meta.ActionRequired = true
	s.fire(ctx, func() error {
		return s.router.NotifyRole(ctx, account.RoleAccountant, notification.EventOOPForwardedToAccountant, meta)
	})
	return oop, nil
}

func (s *OOPServiceImpl) ApproveOOP(ctx context.Context, id, notes, actorID string) (*OOP, error) {
	oop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if oop.Status != StatusForApproval {
		return nil, ErrWrongStatus
	}

	oop.Status = StatusAwaitingPayment
	if err := s.repo.Update(ctx, oop); err != nil {
		return nil, err
	}

	s.notifyApplicant(ctx, oop, notification.EventOOPAwaitingPayment, notes)
	return oop, nil
}

func (s *OOPServiceImpl) SubmitPaymentProof(ctx context.Context, id string, input PaymentProofInput, actorID string) (*OOP, error) {
	oop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// A rejected proof returns the OOP to the payment queue on resubmission.
	if oop.Status != StatusAwaitingPayment && oop.Status != StatusPaymentProofRejected {
		return nil, ErrWrongStatus
	}

	oop.PaymentProof = &PaymentProof{
		TransactionID:   input.TransactionID,
		ReferenceNumber: input.ReferenceNumber,
		Amount:          input.Amount,
		Status:          ProofSubmitted,
		SubmittedAt:     time.Now(),
		Notes:           input.Notes,
	}
	oop.Status = StatusPaymentProofSubmitted
	if err := s.repo.Update(ctx, oop); err != nil {
		return nil, err
	}

	meta := s.metadata(oop, "")
	meta.ActionRequired = true
	s.fire(ctx, func() error {
		return s.router.NotifyRole(ctx, account.RoleBillCollector, notification.EventPaymentProofSubmitted, meta)
	})
	return oop, nil
}

func (s *OOPServiceImpl) ReviewPaymentProof(ctx context.Context, id string, approved bool, notes, actorID string) (*OOP, error) {
	oop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if oop.Status != StatusPaymentProofSubmitted || oop.PaymentProof == nil {
		return nil, ErrWrongStatus
	}

	if approved {
		oop.PaymentProof.Status = ProofApproved
		oop.Status = StatusCompletedOOP
	} else {
		oop.PaymentProof.Status = ProofRejected
		oop.PaymentProof.Notes = notes
		oop.Status = StatusPaymentProofRejected
	}
	if err := s.repo.Update(ctx, oop); err != nil {
		return nil, err
	}

	event := notification.EventPaymentVerified
	if !approved {
		event = notification.EventPaymentRejected
	}
	s.notifyApplicant(ctx, oop, event, notes)
	return oop, nil
}

// GenerateOR attaches the official receipt. Only a Completed OOP may receive
// one; the receipt amount is always the recomputed item total.
func (s *OOPServiceImpl) GenerateOR(ctx context.Context, id string, input IssueORInput, actorID string) (*OOP, error) {
	oop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if oop.Status != StatusCompletedOOP {
		return nil, ErrNotCompletedOOP
	}
	if input.ORNumber == "" {
		return nil, errors.New("official receipt number is required")
	}

	now := time.Now()
	oop.OfficialReceipt = &OfficialReceipt{
		ORNumber: input.ORNumber,
		Amount:   oop.Total(),
		IssuedBy: actorID,
		IssuedAt: now,
	}
	if oop.Tracking != nil {
		oop.Tracking.ReleasedAt = &now
	}
	oop.Status = StatusIssuedOR
	if err := s.repo.Update(ctx, oop); err != nil {
		return nil, err
	}

	if _, err := s.permits.OnORIssued(ctx, oop.ApplicationID.Hex(), actorID); err != nil {
		s.logger.Error("failed to flag permit after OR issuance",
			zap.String("applicationId", oop.ApplicationID.Hex()),
			zap.Error(err))
	}

	s.notifyApplicant(ctx, oop, notification.EventORIssued, "")
	return oop, nil
}

// UndoOOPCreation deletes an OOP created in error. Only possible while no
// signatory has signed; the permit's gates are reset first so a delete
// failure leaves the permit retriable rather than orphaned.
func (s *OOPServiceImpl) UndoOOPCreation(ctx context.Context, id, actorID string) error {
	oop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if oop.Status != StatusPendingSignature {
		return ErrWrongStatus
	}
	if oop.RPSSignatureImage != "" || oop.TSDSignatureImage != "" {
		return ErrSignaturesCollected
	}

	if _, err := s.permits.UndoOOPCreation(ctx, oop.ApplicationID.Hex(), actorID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, oop.ID)
}

func (s *OOPServiceImpl) notifyApplicant(ctx context.Context, oop *OOP, event notification.EventType, remarks string) {
	target, err := s.permits.GetPermit(ctx, oop.ApplicationID.Hex())
	if err != nil {
		s.logger.Error("cannot resolve applicant for notification",
			zap.String("oopId", oop.ID.Hex()),
			zap.Error(err))
		return
	}
	s.fire(ctx, func() error {
		return s.router.NotifyApplicant(ctx, target.ApplicantID, event, s.metadata(oop, remarks))
	})
}

func (s *OOPServiceImpl) fire(ctx context.Context, notify func() error) {
	if err := notify(); err != nil {
		s.logger.Error("notification dispatch failed", zap.Error(err))
	}
}

func (s *OOPServiceImpl) metadata(oop *OOP, remarks string) notification.Metadata {
	return notification.Metadata{
		ApplicationID: oop.ApplicationID.Hex(),
		OOPID:         oop.ID.Hex(),
		Reference:     oop.BillNo,
		Remarks:       remarks,
	}
}
