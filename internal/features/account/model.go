package account

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

// Personnel roles in the review chain. Persisted values must stay stable;
// historical notifications and permits reference them verbatim.
const (
	RoleTechnicalStaff  Role = "Technical_Staff"
	RoleReceivingClerk  Role = "Receiving_Clerk"
	RoleChiefRPS        Role = "Chief_RPS"
	RoleChiefTSD        Role = "Chief_TSD"
	RolePENRCENROfficer Role = "PENR_CENR_Officer"
	RoleAccountant      Role = "Accountant"
	RoleBillCollector   Role = "Bill_Collector"
	RoleReleasingClerk  Role = "Releasing_Clerk"
)

type UserType string

const (
	UserTypePersonnel UserType = "personnel"
	UserTypeClient    UserType = "client"
)

type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Email        string             `bson:"email" json:"email"`
	FullName     string             `bson:"full_name" json:"full_name"`
	UserType     UserType           `bson:"user_type" json:"user_type"`
	Roles        []Role             `bson:"roles,omitempty" json:"roles,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (a *Account) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
