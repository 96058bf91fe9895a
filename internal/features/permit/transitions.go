package permit

import (
	"go-permits/internal/features/account"
	"go-permits/internal/features/notification"
)

// transitions is the closed edge set of the review pipeline. A stage move is
// legal only if the target appears in the source's list; same-stage status
// updates bypass the table. Backward edges are the undo paths.
var transitions = map[Stage][]Stage{
	StageDraft:                     {StageSubmitted, StageTechnicalStaffReview},
	StageSubmitted:                 {StageTechnicalStaffReview},
	StageTechnicalStaffReview:      {StageReturnedByTechnicalStaff, StageForRecordByReceivingClerk, StageDraft},
	StageReturnedByTechnicalStaff:  {StageTechnicalStaffReview},
	StageForRecordByReceivingClerk: {StageChiefRPSReview, StageReturnedByReceivingClerk},
	StageReceivingClerkReview:      {StageChiefRPSReview, StageReturnedByReceivingClerk},
	StageReturnedByReceivingClerk:  {StageReceivingClerkReview},
	StageChiefRPSReview:            {StageCENRPENRReview, StageForRecordByReceivingClerk},
	StageCENRPENRReview:            {StageForInspectionByTechnicalStaff, StageReturnedByPENRCENROfficer, StageAwaitingOOP, StageChiefRPSReview},
	StageReturnedByPENRCENROfficer: {StageCENRPENRReview},
	StageForInspectionByTechnicalStaff: {StageCENRPENRReview},
	StageAwaitingOOP:               {StagePendingRelease},
	StagePendingRelease:            {StageReleased},
	StageReleased:                  {StageExpired},
	StageExpired:                   {},
}

func canTransition(from, to Stage) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type roleEvent struct {
	role  account.Role
	event notification.EventType
}

// stageEvents is the static stage→event table: entering a stage fires the
// listed applicant event and one event per role holder set. Operations with
// context the table cannot carry (chief review summary, rejections, undo
// withdrawals) dispatch their extra events explicitly.
type stageEvent struct {
	applicant notification.EventType
	roles     []roleEvent
}

var stageEvents = map[Stage]stageEvent{
	StageTechnicalStaffReview: {
		applicant: notification.EventApplicationSubmitted,
		roles:     []roleEvent{{account.RoleTechnicalStaff, notification.EventPendingTechnicalReview}},
	},
	StageReturnedByTechnicalStaff: {
		applicant: notification.EventApplicationReturnedByTechnical,
	},
	StageForRecordByReceivingClerk: {
		applicant: notification.EventApplicationAcceptedByTechnical,
		roles:     []roleEvent{{account.RoleReceivingClerk, notification.EventPendingReceivingClerkRecord}},
	},
	StageReceivingClerkReview: {
		roles: []roleEvent{{account.RoleReceivingClerk, notification.EventPendingReceivingClerkRecord}},
	},
	StageReturnedByReceivingClerk: {
		applicant: notification.EventApplicationReturnedByReceivingClerk,
	},
	StageChiefRPSReview: {
		applicant: notification.EventApplicationRecorded,
		roles:     []roleEvent{{account.RoleChiefRPS, notification.EventPendingChiefRPSReview}},
	},
	StageCENRPENRReview: {
		roles: []roleEvent{{account.RolePENRCENROfficer, notification.EventPendingPENRCENRApproval}},
	},
	StageReturnedByPENRCENROfficer: {
		applicant: notification.EventApplicationReturnedByPENRCENR,
	},
	StageForInspectionByTechnicalStaff: {
		applicant: notification.EventApplicationAcceptedByPENRCENR,
		roles:     []roleEvent{{account.RoleTechnicalStaff, notification.EventInspectionRequired}},
	},
	StageAwaitingOOP: {
		applicant: notification.EventApplicationApprovedByPENRCENR,
		roles:     []roleEvent{{account.RoleChiefRPS, notification.EventAwaitingOOPCreation}},
	},
	StagePendingRelease: {
		applicant: notification.EventPermitReadyForRelease,
		roles:     []roleEvent{{account.RoleReleasingClerk, notification.EventPermitReadyForRelease}},
	},
	StageReleased: {
		applicant: notification.EventPermitReleased,
	},
	StageExpired: {
		applicant: notification.EventPermitExpired,
	},
}
