package certificate

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

var ErrNotFound = errors.New("certificate not found")

type CertificateRepository interface {
	Create(ctx context.Context, certificate *Certificate) error
	GetByID(ctx context.Context, id string) (*Certificate, error)
	GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*Certificate, error)
	List(ctx context.Context, status Status) ([]Certificate, error)
	// ListActive returns every certificate not yet Expired; the expiration
	// sweep works off this set.
	ListActive(ctx context.Context) ([]Certificate, error)
	Update(ctx context.Context, certificate *Certificate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CertificateRepositoryImpl struct {
	collection *mongo.Collection
}

func NewCertificateRepository(db *database.MongodbDB) CertificateRepository {
	return &CertificateRepositoryImpl{
		collection: db.DB.Collection("certificates"),
	}
}

func (r *CertificateRepositoryImpl) Create(ctx context.Context, certificate *Certificate) error {
	now := time.Now()
	certificate.CreatedAt = now
	certificate.UpdatedAt = now
	if certificate.ID.IsZero() {
		certificate.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, certificate)
	return err
}

func (r *CertificateRepositoryImpl) GetByID(ctx context.Context, id string) (*Certificate, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var certificate Certificate
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&certificate)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (r *CertificateRepositoryImpl) GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (*Certificate, error) {
	var certificate Certificate
	err := r.collection.FindOne(ctx, bson.M{"application_id": applicationID}).Decode(&certificate)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (r *CertificateRepositoryImpl) List(ctx context.Context, status Status) ([]Certificate, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	return r.find(ctx, query)
}

func (r *CertificateRepositoryImpl) ListActive(ctx context.Context) ([]Certificate, error) {
	return r.find(ctx, bson.M{"status": bson.M{"$ne": StatusExpired}})
}

func (r *CertificateRepositoryImpl) find(ctx context.Context, query bson.M) ([]Certificate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var certificates []Certificate
	if err = cursor.All(ctx, &certificates); err != nil {
		return nil, err
	}
	return certificates, nil
}

func (r *CertificateRepositoryImpl) Update(ctx context.Context, certificate *Certificate) error {
	certificate.UpdatedAt = time.Now()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": certificate.ID}, certificate)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CertificateRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
