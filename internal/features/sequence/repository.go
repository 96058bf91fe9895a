package sequence

import (
	"context"
	"time"

	"go-permits/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CounterRepository interface {
	// Increment atomically bumps the counter for key and returns the new value.
	// The counter document is created on first use.
	Increment(ctx context.Context, key string) (int64, error)
}

type CounterRepositoryImpl struct {
	collection *mongo.Collection
}

func NewCounterRepository(db *database.MongodbDB) CounterRepository {
	return &CounterRepositoryImpl{
		collection: db.DB.Collection("sequence_counters"),
	}
}

// Increment relies on a single FindOneAndUpdate with $inc and upsert, so
// concurrent callers for the same key can never observe the same value.
// Read-then-write is deliberately avoided here.
func (r *CounterRepositoryImpl) Increment(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	var counter Counter
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": key}, update, opts).Decode(&counter)
	if err != nil {
		return 0, err
	}

	return counter.Seq, nil
}
