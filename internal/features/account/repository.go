package account

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

var ErrNotFound = errors.New("account not found")

type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	// FindByRole returns every account holding the role, ordered by creation
	// time so role resolution is deterministic across calls.
	FindByRole(ctx context.Context, role Role) ([]Account, error)
	List(ctx context.Context, userType UserType) ([]Account, error)
}

type AccountRepositoryImpl struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *database.MongodbDB) AccountRepository {
	return &AccountRepositoryImpl{
		collection: db.DB.Collection("accounts"),
	}
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account *Account) error {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, account)
	return err
}

func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id string) (*Account, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var account Account
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepositoryImpl) FindByUsername(ctx context.Context, username string) (*Account, error) {
	var account Account
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepositoryImpl) FindByRole(ctx context.Context, role Role) ([]Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"roles": role}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []Account
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepositoryImpl) List(ctx context.Context, userType UserType) ([]Account, error) {
	filter := bson.M{}
	if userType != "" {
		filter["user_type"] = userType
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []Account
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
