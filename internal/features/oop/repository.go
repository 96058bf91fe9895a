package oop

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

var ErrNotFound = errors.New("order of payment not found")

type OOPRepository interface {
	Create(ctx context.Context, oop *OOP) error
	GetByID(ctx context.Context, id string) (*OOP, error)
	GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*OOP, error)
	List(ctx context.Context, status OOPStatus) ([]OOP, error)
	Update(ctx context.Context, oop *OOP) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OOPRepositoryImpl struct {
	collection *mongo.Collection
}

func NewOOPRepository(db *database.MongodbDB) OOPRepository {
	return &OOPRepositoryImpl{
		collection: db.DB.Collection("oops"),
	}
}

func (r *OOPRepositoryImpl) Create(ctx context.Context, oop *OOP) error {
	now := time.Now()
	oop.CreatedAt = now
	oop.UpdatedAt = now
	if oop.ID.IsZero() {
		oop.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, oop)
	return err
}

func (r *OOPRepositoryImpl) GetByID(ctx context.Context, id string) (*OOP, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var oop OOP
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&oop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &oop, nil
}

func (r *OOPRepositoryImpl) GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*OOP, error) {
	var oop OOP
	err := r.collection.FindOne(ctx, bson.M{"application_id": applicationID}).Decode(&oop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &oop, nil
}

func (r *OOPRepositoryImpl) List(ctx context.Context, status OOPStatus) ([]OOP, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var oops []OOP
	if err = cursor.All(ctx, &oops); err != nil {
		return nil, err
	}
	return oops, nil
}

func (r *OOPRepositoryImpl) Update(ctx context.Context, oop *OOP) error {
	oop.UpdatedAt = time.Now()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oop.ID}, oop)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OOPRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
