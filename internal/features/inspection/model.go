package inspection

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending     Status = "Pending"
	StatusCompleted   Status = "Completed"
	StatusRescheduled Status = "Rescheduled"
	StatusCancelled   Status = "Cancelled"
)

type Result string

const (
	ResultPass              Result = "Pass"
	ResultFail              Result = "Fail"
	ResultNeedsModification Result = "Needs Modification"
)

func ValidResult(r Result) bool {
	switch r {
	case ResultPass, ResultFail, ResultNeedsModification:
		return true
	}
	return false
}

type Findings struct {
	Result     Result    `bson:"result" json:"result"`
	Remarks    string    `bson:"remarks,omitempty" json:"remarks,omitempty"`
	RecordedAt time.Time `bson:"recorded_at" json:"recorded_at"`
	RecordedBy string    `bson:"recorded_by" json:"recorded_by"`
}

type Inspection struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationID primitive.ObjectID `bson:"application_id" json:"application_id"`
	ScheduledDate time.Time          `bson:"scheduled_date" json:"scheduled_date"`
	Location      string             `bson:"location" json:"location"`
	InspectorID   string             `bson:"inspector_id" json:"inspector_id"`
	Status        Status             `bson:"status" json:"status"`
	Findings      *Findings          `bson:"findings,omitempty" json:"findings,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
