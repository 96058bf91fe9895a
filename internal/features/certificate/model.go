package certificate

import (
	"time"

	"go-permits/internal/features/permit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPendingSignature Status = "Pending Signature"
	StatusSigned           Status = "Signed"
	StatusReleased         Status = "Released"
	StatusExpired          Status = "Expired"
)

type Certificate struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	CertificateNo   string                 `bson:"certificate_no" json:"certificate_no"`
	ApplicationID   primitive.ObjectID     `bson:"application_id" json:"application_id"`
	ApplicationType permit.ApplicationType `bson:"application_type" json:"application_type"`
	UploadedFile    string                 `bson:"uploaded_file,omitempty" json:"uploaded_file,omitempty"`
	Status          Status                 `bson:"status" json:"status"`
	SignedBy        string                 `bson:"signed_by,omitempty" json:"signed_by,omitempty"`
	IssuedAt        *time.Time             `bson:"issued_at,omitempty" json:"issued_at,omitempty"`
	ExpiryDate      *time.Time             `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	CreatedAt       time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time              `bson:"updated_at" json:"updated_at"`
}
