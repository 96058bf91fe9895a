package permit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationType discriminates the permit kinds handled by the office.
// Persisted values must stay stable; they seed application and certificate
// number formats.
type ApplicationType string

const (
	TypeCSAW  ApplicationType = "CSAW"  // Chainsaw registration
	TypeCOV   ApplicationType = "COV"   // Certificate of Verification
	TypePTPR  ApplicationType = "PTPR"  // Private Tree Plantation Registration
	TypePLTP  ApplicationType = "PLTP"  // Public Land Timber Permit
	TypeTCEBP ApplicationType = "TCEBP" // Tree Cutting / Earth Balling Permit
	TypeSPLTP ApplicationType = "SPLTP" // Special Private Land Timber Permit
)

func ValidApplicationType(t ApplicationType) bool {
	switch t {
	case TypeCSAW, TypeCOV, TypePTPR, TypePLTP, TypeTCEBP, TypeSPLTP:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft      Status = "Draft"
	StatusSubmitted  Status = "Submitted"
	StatusReturned   Status = "Returned"
	StatusAccepted   Status = "Accepted"
	StatusRejected   Status = "Rejected"
	StatusInProgress Status = "In Progress"
	StatusApproved   Status = "Approved"
	StatusCompleted  Status = "Completed"
	StatusExpired    Status = "Expired"
)

type Stage string

const (
	StageDraft                        Stage = "Draft"
	StageSubmitted                    Stage = "Submitted"
	StageTechnicalStaffReview         Stage = "TechnicalStaffReview"
	StageReturnedByTechnicalStaff     Stage = "ReturnedByTechnicalStaff"
	StageForRecordByReceivingClerk    Stage = "ForRecordByReceivingClerk"
	StageReceivingClerkReview         Stage = "ReceivingClerkReview"
	StageReturnedByReceivingClerk     Stage = "ReturnedByReceivingClerk"
	StageChiefRPSReview               Stage = "ChiefRPSReview"
	StageCENRPENRReview               Stage = "CENRPENRReview"
	StageReturnedByPENRCENROfficer    Stage = "ReturnedByPENRCENROfficer"
	StageForInspectionByTechnicalStaff Stage = "ForInspectionByTechnicalStaff"
	StageAwaitingOOP                  Stage = "AwaitingOOP"
	StagePendingRelease               Stage = "PendingRelease"
	StageReleased                     Stage = "Released"
	StageExpired                      Stage = "Expired"
)

// HistoryEntry is one row of the permit's append-only transition log.
type HistoryEntry struct {
	Stage     Stage     `bson:"stage" json:"stage"`
	Status    Status    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	ActorID   string    `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
}

type Permit struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationType   ApplicationType    `bson:"application_type" json:"application_type"`
	ApplicationNumber string             `bson:"application_number" json:"application_number"`
	ApplicantID       primitive.ObjectID `bson:"applicant_id" json:"applicant_id"`
	Status            Status             `bson:"status" json:"status"`
	CurrentStage      Stage              `bson:"current_stage" json:"current_stage"`
	Gates             Gates              `bson:"gates" json:"gates"`
	History           []HistoryEntry     `bson:"history" json:"history"`
	DateOfSubmission  *time.Time         `bson:"date_of_submission,omitempty" json:"date_of_submission,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	LastUpdated       time.Time          `bson:"last_updated" json:"last_updated"`
}

func (p *Permit) Terminal() bool {
	return p.CurrentStage == StageReleased || p.CurrentStage == StageExpired || p.Status == StatusRejected
}
