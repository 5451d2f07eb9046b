package repository

import (
	"context"
	"fmt"

	"stratusdrive/models"
	"stratusdrive/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FsoRepository stores tree nodes in the fsos collection, one document per
// node, children found through an indexed parent_id query.
type FsoRepository struct {
	store      *Store
	collection *mongo.Collection
}

func NewFsoRepository(store *Store) *FsoRepository {
	return &FsoRepository{
		store:      store,
		collection: store.db.Collection("fsos"),
	}
}

func (r *FsoRepository) GetByID(ctx context.Context, id int64) (*models.FSO, error) {
	var fso models.FSO
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&fso)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("fso %d: %w", id, services.ErrNotFound)
	} else if err != nil {
		return nil, storageErr(fmt.Sprintf("find fso %d", id), err)
	}
	return &fso, nil
}

// GetByIDs returns only the nodes that still exist; missing ids are dropped.
func (r *FsoRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.FSO, error) {
	if len(ids) == 0 {
		return []models.FSO{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storageErr("find fsos", err)
	}
	defer cursor.Close(ctx)

	fsos := []models.FSO{}
	if err := cursor.All(ctx, &fsos); err != nil {
		return nil, storageErr("decode fsos", err)
	}
	return fsos, nil
}

func (r *FsoRepository) Children(ctx context.Context, parentID int64) ([]models.FSO, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"parent_id": parentID},
		options.Find().SetSort(bson.M{"name": 1}),
	)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("find children of %d", parentID), err)
	}
	defer cursor.Close(ctx)

	children := []models.FSO{}
	if err := cursor.All(ctx, &children); err != nil {
		return nil, storageErr("decode children", err)
	}
	return children, nil
}

func (r *FsoRepository) Insert(ctx context.Context, fso *models.FSO) error {
	id, err := r.store.NextID(ctx, "fso")
	if err != nil {
		return err
	}
	fso.ID = id
	if _, err := r.collection.InsertOne(ctx, fso); err != nil {
		return storageErr(fmt.Sprintf("insert fso %d", id), err)
	}
	return nil
}

func (r *FsoRepository) Update(ctx context.Context, fso *models.FSO) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": fso.ID}, fso)
	if err != nil {
		return storageErr(fmt.Sprintf("update fso %d", fso.ID), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("fso %d: %w", fso.ID, services.ErrNotFound)
	}
	return nil
}

func (r *FsoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr(fmt.Sprintf("delete fso %d", id), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("fso %d: %w", id, services.ErrNotFound)
	}
	return nil
}
