package oop

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OOPStatus is the Order of Payment lifecycle. Persisted values must stay
// stable; historical documents reference them verbatim.
type OOPStatus string

const (
	StatusPendingSignature      OOPStatus = "Pending Signature"
	StatusForApproval           OOPStatus = "For Approval"
	StatusAwaitingPayment       OOPStatus = "Awaiting Payment"
	StatusPaymentProofSubmitted OOPStatus = "Payment Proof Submitted"
	StatusPaymentProofApproved  OOPStatus = "Payment Proof Approved"
	StatusPaymentProofRejected  OOPStatus = "Payment Proof Rejected"
	StatusCompletedOOP          OOPStatus = "Completed OOP"
	StatusIssuedOR              OOPStatus = "Issued OR"
)

// SignatureKind selects which of the two required signatories an uploaded
// signature image belongs to.
type SignatureKind string

const (
	SignatureRPS SignatureKind = "rps"
	SignatureTSD SignatureKind = "tsd"
)

type ProofStatus string

const (
	ProofSubmitted ProofStatus = "Submitted"
	ProofApproved  ProofStatus = "Approved"
	ProofRejected  ProofStatus = "Rejected"
)

type Item struct {
	LegalBasis  string  `bson:"legal_basis" json:"legal_basis"`
	Description string  `bson:"description" json:"description"`
	Amount      float64 `bson:"amount" json:"amount"`
}

type Tracking struct {
	TrackingNo string     `bson:"tracking_no" json:"tracking_no"`
	ReceivedAt *time.Time `bson:"received_at,omitempty" json:"received_at,omitempty"`
	ReleasedAt *time.Time `bson:"released_at,omitempty" json:"released_at,omitempty"`
}

type PaymentProof struct {
	TransactionID   string      `bson:"transaction_id" json:"transaction_id"`
	ReferenceNumber string      `bson:"reference_number" json:"reference_number"`
	Amount          float64     `bson:"amount" json:"amount"`
	Status          ProofStatus `bson:"status" json:"status"`
	SubmittedAt     time.Time   `bson:"submitted_at" json:"submitted_at"`
	Notes           string      `bson:"notes,omitempty" json:"notes,omitempty"`
}

type OfficialReceipt struct {
	ORNumber string    `bson:"or_number" json:"or_number"`
	Amount   float64   `bson:"amount" json:"amount"`
	IssuedBy string    `bson:"issued_by" json:"issued_by"`
	IssuedAt time.Time `bson:"issued_at" json:"issued_at"`
}

type OOP struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BillNo                 string             `bson:"bill_no" json:"bill_no"`
	ApplicationID          primitive.ObjectID `bson:"application_id" json:"application_id"`
	Items                  []Item             `bson:"items" json:"items"`
	Status                 OOPStatus          `bson:"status" json:"status"`
	RPSSignatureImage      string             `bson:"rps_signature_image,omitempty" json:"rps_signature_image,omitempty"`
	TSDSignatureImage      string             `bson:"tsd_signature_image,omitempty" json:"tsd_signature_image,omitempty"`
	RPSSignedAt            *time.Time         `bson:"rps_signed_at,omitempty" json:"rps_signed_at,omitempty"`
	TSDSignedAt            *time.Time         `bson:"tsd_signed_at,omitempty" json:"tsd_signed_at,omitempty"`
	SignedByTwoSignatories bool               `bson:"signed_by_two_signatories" json:"signed_by_two_signatories"`
	Tracking               *Tracking          `bson:"tracking,omitempty" json:"tracking,omitempty"`
	PaymentProof           *PaymentProof      `bson:"payment_proof,omitempty" json:"payment_proof,omitempty"`
	OfficialReceipt        *OfficialReceipt   `bson:"official_receipt,omitempty" json:"official_receipt,omitempty"`
	CreatedAt              time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updated_at"`
}

// Total recomputes the billed amount from the line items. The stored document
// is never trusted for the sum.
func (o *OOP) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Amount
	}
	return total
}
