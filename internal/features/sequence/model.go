package sequence

import "time"

// Counter is one named sequence document. The _id is the kind plus the period
// key (e.g. "CSAW-20240920"), so each id family restarts per period while the
// document itself is never deleted.
type Counter struct {
	ID        string    `bson:"_id" json:"id"`
	Seq       int64     `bson:"seq" json:"seq"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
