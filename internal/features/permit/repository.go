package permit

import (
	"context"
	"errors"
	"time"

	"go-permits/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("permit not found")

// TransitionUpdate is the unit of mutation for a permit: stage, status, the
// full gate set and exactly one history entry, committed as a single
// document write.
type TransitionUpdate struct {
	Stage            Stage
	Status           Status
	Gates            Gates
	DateOfSubmission *time.Time // set only when non-nil
	Entry            HistoryEntry
}

type ListFilter struct {
	ApplicantID     string
	ApplicationType ApplicationType
	Stage           Stage
	Status          Status
}

type PermitRepository interface {
	Create(ctx context.Context, permit *Permit) error
	GetByID(ctx context.Context, id string) (*Permit, error)
	List(ctx context.Context, filter ListFilter) ([]Permit, error)
	// ApplyTransition commits one stage/status/gates move plus its history
	// entry atomically.
	ApplyTransition(ctx context.Context, id primitive.ObjectID, update TransitionUpdate) error
}

type PermitRepositoryImpl struct {
	collection *mongo.Collection
}

func NewPermitRepository(db *database.MongodbDB) PermitRepository {
	return &PermitRepositoryImpl{
		collection: db.DB.Collection("permits"),
	}
}

func (r *PermitRepositoryImpl) Create(ctx context.Context, permit *Permit) error {
	now := time.Now()
	permit.CreatedAt = now
	permit.LastUpdated = now
	if permit.ID.IsZero() {
		permit.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, permit)
	return err
}

func (r *PermitRepositoryImpl) GetByID(ctx context.Context, id string) (*Permit, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var permit Permit
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&permit)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &permit, nil
}

func (r *PermitRepositoryImpl) List(ctx context.Context, filter ListFilter) ([]Permit, error) {
	query := bson.M{}
	if filter.ApplicantID != "" {
		applicantID, err := primitive.ObjectIDFromHex(filter.ApplicantID)
		if err != nil {
			return nil, err
		}
		query["applicant_id"] = applicantID
	}
	if filter.ApplicationType != "" {
		query["application_type"] = filter.ApplicationType
	}
	if filter.Stage != "" {
		query["current_stage"] = filter.Stage
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var permits []Permit
	if err = cursor.All(ctx, &permits); err != nil {
		return nil, err
	}
	return permits, nil
}

// ApplyTransition uses one UpdateOne with $set + $push so the stage move,
// gate updates and history append commit together or not at all.
func (r *PermitRepositoryImpl) ApplyTransition(ctx context.Context, id primitive.ObjectID, update TransitionUpdate) error {
	set := bson.M{
		"current_stage": update.Stage,
		"status":        update.Status,
		"gates":         update.Gates,
		"last_updated":  time.Now(),
	}
	if update.DateOfSubmission != nil {
		set["date_of_submission"] = update.DateOfSubmission
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":  set,
			"$push": bson.M{"history": update.Entry},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
