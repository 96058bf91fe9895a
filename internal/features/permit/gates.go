package permit

import (
	"errors"
	"fmt"
)

var (
	// ErrDownstreamProgress rejects an undo that would silently invalidate
	// work a later role has already completed.
	ErrDownstreamProgress = errors.New("a downstream role has already acted on this permit")

	// ErrBackwardGate rejects clearing a gate flag outside of an undo
	// operation.
	ErrBackwardGate = errors.New("gate flags may only be cleared through an undo operation")

	ErrUnknownGate = errors.New("unknown gate flag")
)

// Gates is the set of per-role completion flags on a permit. Forward progress
// only sets flags; clearing one goes through the Undo* methods so the
// downstream-progress guard lives in exactly one place.
type Gates struct {
	AcceptedByTechnicalStaff  bool `bson:"acceptedByTechnicalStaff" json:"acceptedByTechnicalStaff"`
	RecordedByReceivingClerk  bool `bson:"recordedByReceivingClerk" json:"recordedByReceivingClerk"`
	ReviewedByChief           bool `bson:"reviewedByChief" json:"reviewedByChief"`
	AcceptedByPENRCENROfficer bool `bson:"acceptedByPENRCENROfficer" json:"acceptedByPENRCENROfficer"`
	ApprovedByPENRCENROfficer bool `bson:"approvedByPENRCENROfficer" json:"approvedByPENRCENROfficer"`
	HasInspectionReport       bool `bson:"hasInspectionReport" json:"hasInspectionReport"`
	AwaitingOOP               bool `bson:"awaitingOOP" json:"awaitingOOP"`
	OOPCreated                bool `bson:"OOPCreated" json:"OOPCreated"`
	AwaitingPermitCreation    bool `bson:"awaitingPermitCreation" json:"awaitingPermitCreation"`
	PermitCreated             bool `bson:"PermitCreated" json:"PermitCreated"`
}

// Set applies one named forward flag update. Clearing a set flag is rejected;
// that path belongs to the undo methods.
func (g *Gates) Set(name string, value bool) error {
	target, ok := g.field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGate, name)
	}
	if !value && *target {
		return fmt.Errorf("%w: %s", ErrBackwardGate, name)
	}
	*target = value
	return nil
}

func (g *Gates) field(name string) (*bool, bool) {
	switch name {
	case "acceptedByTechnicalStaff":
		return &g.AcceptedByTechnicalStaff, true
	case "recordedByReceivingClerk":
		return &g.RecordedByReceivingClerk, true
	case "reviewedByChief":
		return &g.ReviewedByChief, true
	case "acceptedByPENRCENROfficer":
		return &g.AcceptedByPENRCENROfficer, true
	case "approvedByPENRCENROfficer":
		return &g.ApprovedByPENRCENROfficer, true
	case "hasInspectionReport":
		return &g.HasInspectionReport, true
	case "awaitingOOP":
		return &g.AwaitingOOP, true
	case "OOPCreated":
		return &g.OOPCreated, true
	case "awaitingPermitCreation":
		return &g.AwaitingPermitCreation, true
	case "PermitCreated":
		return &g.PermitCreated, true
	}
	return nil, false
}

// UndoRecordApplication clears the receiving clerk's record. Rejected once
// the chief or the PENR/CENR officer has acted on the recorded application.
func (g *Gates) UndoRecordApplication() error {
	if g.ReviewedByChief || g.AcceptedByPENRCENROfficer {
		return ErrDownstreamProgress
	}
	if !g.RecordedByReceivingClerk {
		return errors.New("application has not been recorded")
	}
	g.RecordedByReceivingClerk = false
	return nil
}

// UndoAcceptanceCENRPENROfficer clears the officer's acceptance. Rejected
// once approval, inspection findings or the payment workflow exist on top
// of it.
func (g *Gates) UndoAcceptanceCENRPENROfficer() error {
	if g.ApprovedByPENRCENROfficer || g.HasInspectionReport || g.AwaitingOOP || g.OOPCreated {
		return ErrDownstreamProgress
	}
	if !g.AcceptedByPENRCENROfficer {
		return errors.New("application has not been accepted by the PENR/CENR officer")
	}
	g.AcceptedByPENRCENROfficer = false
	return nil
}

// UndoInspectionReport clears the inspection flag. Rejected once the officer
// has approved the application or the payment workflow started.
func (g *Gates) UndoInspectionReport() error {
	if g.ApprovedByPENRCENROfficer || g.AwaitingOOP || g.OOPCreated {
		return ErrDownstreamProgress
	}
	if !g.HasInspectionReport {
		return errors.New("no inspection report to undo")
	}
	g.HasInspectionReport = false
	return nil
}

// UndoOOPCreation reverses OOP creation: the permit goes back to awaiting an
// Order of Payment. The OOP-side precondition (no signature collected yet)
// is checked by the OOP workflow before calling this.
func (g *Gates) UndoOOPCreation() error {
	if g.AwaitingPermitCreation || g.PermitCreated {
		return ErrDownstreamProgress
	}
	if !g.OOPCreated {
		return errors.New("no OOP has been created for this permit")
	}
	g.OOPCreated = false
	g.AwaitingOOP = true
	return nil
}
