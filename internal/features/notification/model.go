package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType identifies a workflow event with a fixed notification template.
// The set is closed: dispatching an unknown event type is a programming error.
// Persisted values must stay stable; stored notifications reference them.
type EventType string

const (
	EventApplicationSubmitted   EventType = "APPLICATION_SUBMITTED"
	EventApplicationUnsubmitted EventType = "APPLICATION_UNSUBMITTED"
	EventPendingTechnicalReview EventType = "PENDING_TECHNICAL_REVIEW"

	EventApplicationReturnedByTechnical EventType = "APPLICATION_RETURNED_BY_TECHNICAL"
	EventApplicationAcceptedByTechnical EventType = "APPLICATION_ACCEPTED_BY_TECHNICAL"
	EventPendingReceivingClerkRecord    EventType = "PENDING_RECEIVING_CLERK_RECORD"

	EventApplicationRecorded                EventType = "APPLICATION_RECORDED"
	EventApplicationReturnedByReceivingClerk EventType = "APPLICATION_RETURNED_BY_RECEIVING_CLERK"
	EventPendingChiefRPSReview              EventType = "PENDING_CHIEF_RPS_REVIEW"

	EventApplicationReviewedByChief EventType = "APPLICATION_REVIEWED_BY_CHIEF"
	EventPendingPENRCENRApproval    EventType = "PENDING_PENRCENR_APPROVAL"

	EventApplicationReturnedByPENRCENR EventType = "APPLICATION_RETURNED_BY_PENRCENR"
	EventApplicationAcceptedByPENRCENR EventType = "APPLICATION_ACCEPTED_BY_PENRCENR"
	EventApplicationApprovedByPENRCENR EventType = "APPLICATION_APPROVED_BY_PENRCENR"
	EventApplicationRejected           EventType = "APPLICATION_REJECTED"

	EventInspectionRequired  EventType = "INSPECTION_REQUIRED"
	EventInspectionScheduled EventType = "INSPECTION_SCHEDULED"
	EventInspectionCompleted EventType = "INSPECTION_COMPLETED"

	EventAwaitingOOPCreation EventType = "AWAITING_OOP_CREATION"

	EventOOPCreated               EventType = "OOP_CREATED"
	EventOOPPendingSignature      EventType = "OOP_PENDING_SIGNATURE"
	EventOOPForwardedToAccountant EventType = "OOP_FORWARDED_TO_ACCOUNTANT"
	EventOOPAwaitingPayment       EventType = "OOP_AWAITING_PAYMENT"
	EventPaymentProofSubmitted    EventType = "PAYMENT_PROOF_SUBMITTED"
	EventPaymentVerified          EventType = "PAYMENT_VERIFIED"
	EventPaymentRejected          EventType = "PAYMENT_REJECTED"
	EventORIssued                 EventType = "OR_ISSUED"

	EventCertificateCreated     EventType = "CERTIFICATE_CREATED"
	EventPermitReadyForRelease  EventType = "PERMIT_READY_FOR_RELEASE"
	EventPermitReleased         EventType = "PERMIT_RELEASED"
	EventPermitExpired          EventType = "PERMIT_EXPIRED"
)

type RecipientType string

const (
	RecipientPersonnel RecipientType = "personnel"
	RecipientApplicant RecipientType = "applicant"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Metadata ties a notification back to the record that produced it.
type Metadata struct {
	ApplicationID  string `bson:"application_id,omitempty" json:"application_id,omitempty"`
	OOPID          string `bson:"oop_id,omitempty" json:"oop_id,omitempty"`
	Reference      string `bson:"reference,omitempty" json:"reference,omitempty"` // application no / bill no shown in the message
	Stage          string `bson:"stage,omitempty" json:"stage,omitempty"`
	Remarks        string `bson:"remarks,omitempty" json:"remarks,omitempty"`
	ActionRequired bool   `bson:"action_required" json:"action_required"`
}

// Notification is created once per triggering event and never edited except
// for the read flag.
type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecipientID   primitive.ObjectID `bson:"recipient_id" json:"recipient_id"`
	RecipientType RecipientType      `bson:"recipient_type" json:"recipient_type"`
	Type          EventType          `bson:"type" json:"type"`
	Title         string             `bson:"title" json:"title"`
	Message       string             `bson:"message" json:"message"`
	Metadata      Metadata           `bson:"metadata" json:"metadata"`
	Priority      Priority           `bson:"priority" json:"priority"`
	IsRead        bool               `bson:"is_read" json:"is_read"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	ReadAt        *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
}
