package notification

// template pairs the fixed title with a message format. The format receives
// the metadata reference (application number or bill number) as its single
// argument; remarks are appended separately when present.
type template struct {
	Title    string
	Message  string
	Priority Priority
}

// templates is the closed event table. Every EventType declared in model.go
// must have an entry here; Dispatch fails loudly otherwise.
var templates = map[EventType]template{
	EventApplicationSubmitted: {
		Title:    "Application Submitted",
		Message:  "Your application %s has been submitted and is awaiting technical review.",
		Priority: PriorityNormal,
	},
	EventApplicationUnsubmitted: {
		Title:    "Application Unsubmitted",
		Message:  "Application %s was withdrawn by the applicant before review.",
		Priority: PriorityNormal,
	},
	EventPendingTechnicalReview: {
		Title:    "Pending Technical Review",
		Message:  "Application %s is awaiting technical review.",
		Priority: PriorityNormal,
	},
	EventApplicationReturnedByTechnical: {
		Title:    "Application Returned",
		Message:  "Your application %s was returned by the technical staff for revision.",
		Priority: PriorityHigh,
	},
	EventApplicationAcceptedByTechnical: {
		Title:    "Application Accepted",
		Message:  "Your application %s passed technical review and was forwarded for recording.",
		Priority: PriorityNormal,
	},
	EventPendingReceivingClerkRecord: {
		Title:    "Pending Record",
		Message:  "Application %s is awaiting recording by the receiving clerk.",
		Priority: PriorityNormal,
	},
	EventApplicationRecorded: {
		Title:    "Application Recorded",
		Message:  "Your application %s has been recorded and forwarded for chief review.",
		Priority: PriorityNormal,
	},
	EventApplicationReturnedByReceivingClerk: {
		Title:    "Application Returned",
		Message:  "Your application %s was returned by the receiving clerk.",
		Priority: PriorityHigh,
	},
	EventPendingChiefRPSReview: {
		Title:    "Pending Chief Review",
		Message:  "Application %s is awaiting review by the Chief RPS.",
		Priority: PriorityNormal,
	},
	EventApplicationReviewedByChief: {
		Title:    "Application Reviewed",
		Message:  "Your application %s was reviewed by the Chief RPS and forwarded for approval.",
		Priority: PriorityNormal,
	},
	EventPendingPENRCENRApproval: {
		Title:    "Pending Approval",
		Message:  "Application %s is awaiting PENR/CENR Officer action.",
		Priority: PriorityNormal,
	},
	EventApplicationReturnedByPENRCENR: {
		Title:    "Application Returned",
		Message:  "Your application %s was returned by the PENR/CENR Officer.",
		Priority: PriorityHigh,
	},
	EventApplicationAcceptedByPENRCENR: {
		Title:    "Application Accepted",
		Message:  "Your application %s was accepted by the PENR/CENR Officer.",
		Priority: PriorityNormal,
	},
	EventApplicationApprovedByPENRCENR: {
		Title:    "Application Approved",
		Message:  "Your application %s was approved. An Order of Payment will be issued.",
		Priority: PriorityNormal,
	},
	EventApplicationRejected: {
		Title:    "Application Rejected",
		Message:  "Your application %s has been rejected.",
		Priority: PriorityHigh,
	},
	EventInspectionRequired: {
		Title:    "Inspection Required",
		Message:  "Application %s requires an on-site inspection. Please schedule one.",
		Priority: PriorityHigh,
	},
	EventInspectionScheduled: {
		Title:    "Inspection Scheduled",
		Message:  "An inspection has been scheduled for application %s.",
		Priority: PriorityNormal,
	},
	EventInspectionCompleted: {
		Title:    "Inspection Completed",
		Message:  "Inspection findings for application %s have been recorded.",
		Priority: PriorityNormal,
	},
	EventAwaitingOOPCreation: {
		Title:    "Awaiting Order of Payment",
		Message:  "Application %s is approved and awaits creation of an Order of Payment.",
		Priority: PriorityHigh,
	},
	EventOOPCreated: {
		Title:    "Order of Payment Created",
		Message:  "An Order of Payment (%s) has been created for your application.",
		Priority: PriorityNormal,
	},
	EventOOPPendingSignature: {
		Title:    "Order of Payment Pending Signature",
		Message:  "Order of Payment %s requires your signature.",
		Priority: PriorityHigh,
	},
	EventOOPForwardedToAccountant: {
		Title:    "Order of Payment For Approval",
		Message:  "Order of Payment %s was signed by both signatories and awaits your approval.",
		Priority: PriorityNormal,
	},
	EventOOPAwaitingPayment: {
		Title:    "Awaiting Payment",
		Message:  "Order of Payment %s is approved. Please settle the fees and submit proof of payment.",
		Priority: PriorityHigh,
	},
	EventPaymentProofSubmitted: {
		Title:    "Payment Proof Submitted",
		Message:  "Proof of payment for Order of Payment %s was submitted and awaits verification.",
		Priority: PriorityNormal,
	},
	EventPaymentVerified: {
		Title:    "Payment Verified",
		Message:  "Your payment for Order of Payment %s has been verified.",
		Priority: PriorityNormal,
	},
	EventPaymentRejected: {
		Title:    "Payment Rejected",
		Message:  "Your proof of payment for Order of Payment %s was rejected. Please submit a valid proof.",
		Priority: PriorityHigh,
	},
	EventORIssued: {
		Title:    "Official Receipt Issued",
		Message:  "An Official Receipt has been issued for Order of Payment %s.",
		Priority: PriorityNormal,
	},
	EventCertificateCreated: {
		Title:    "Certificate Created",
		Message:  "A certificate for application %s has been generated and awaits signature.",
		Priority: PriorityNormal,
	},
	EventPermitReadyForRelease: {
		Title:    "Permit Ready For Release",
		Message:  "The permit for application %s is signed and ready for release.",
		Priority: PriorityNormal,
	},
	EventPermitReleased: {
		Title:    "Permit Released",
		Message:  "Your permit for application %s has been released. This completes your application.",
		Priority: PriorityNormal,
	},
	EventPermitExpired: {
		Title:    "Permit Expired",
		Message:  "Your permit for application %s has expired.",
		Priority: PriorityHigh,
	},
}
