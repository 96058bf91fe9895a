package inspection

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

var ErrNotFound = errors.New("inspection not found")

type InspectionRepository interface {
	Create(ctx context.Context, inspection *Inspection) error
	GetByID(ctx context.Context, id string) (*Inspection, error)
	GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*Inspection, error)
	List(ctx context.Context, status Status) ([]Inspection, error)
	Update(ctx context.Context, inspection *Inspection) error
}

type InspectionRepositoryImpl struct {
	collection *mongo.Collection
}

func NewInspectionRepository(db *database.MongodbDB) InspectionRepository {
	return &InspectionRepositoryImpl{
		collection: db.DB.Collection("inspections"),
	}
}

func (r *InspectionRepositoryImpl) Create(ctx context.Context, inspection *Inspection) error {
	now := time.Now()
	inspection.CreatedAt = now
	inspection.UpdatedAt = now
	if inspection.ID.IsZero() {
		inspection.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, inspection)
	return err
}

func (r *InspectionRepositoryImpl) GetByID(ctx context.Context, id string) (*Inspection, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var inspection Inspection
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&inspection)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

func (r *InspectionRepositoryImpl) GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*Inspection, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var inspection Inspection
	err := r.collection.FindOne(ctx, bson.M{"application_id": applicationID}, opts).Decode(&inspection)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

func (r *InspectionRepositoryImpl) List(ctx context.Context, status Status) ([]Inspection, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduled_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var inspections []Inspection
	if err = cursor.All(ctx, &inspections); err != nil {
		return nil, err
	}
	return inspections, nil
}

func (r *InspectionRepositoryImpl) Update(ctx context.Context, inspection *Inspection) error {
	inspection.UpdatedAt = time.Now()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": inspection.ID}, inspection)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
