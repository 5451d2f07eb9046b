package repository

import (
	"context"
	"fmt"

	"stratusdrive/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the Mongo database handle shared by the repositories and owns
// the id counters and the transaction helper.
type Store struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// NextID allocates the next int64 id for the named sequence from the
// counters collection. The upserted $inc is atomic, so concurrent inserts
// never share an id.
func (s *Store) NextID(ctx context.Context, name string) (int64, error) {
	res := s.db.Collection("counters").FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&doc); err != nil {
		return 0, storageErr(fmt.Sprintf("next id for %s", name), err)
	}
	return doc.Seq, nil
}

// WithTransaction runs fn inside a single session transaction; every
// multi-document write (share creation, registration) goes through here so
// one logical operation is one unit of work.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx mongo.SessionContext) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return storageErr("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// storageErr keeps the driver error text while staying matchable as
// services.ErrStorage.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, services.ErrStorage)
}
