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

// ShareRepository stores shares and their object rows in two collections,
// mirroring the share / shared-object split of the data model.
type ShareRepository struct {
	store   *Store
	shares  *mongo.Collection
	objects *mongo.Collection
}

func NewShareRepository(store *Store) *ShareRepository {
	return &ShareRepository{
		store:   store,
		shares:  store.db.Collection("shares"),
		objects: store.db.Collection("shared_objects"),
	}
}

// Insert writes the share and its object rows as one unit of work.
func (r *ShareRepository) Insert(ctx context.Context, share *models.Share, fsoIDs []int64) error {
	id, err := r.store.NextID(ctx, "share")
	if err != nil {
		return err
	}
	share.ID = id

	return r.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := r.shares.InsertOne(sessCtx, share); err != nil {
			return storageErr(fmt.Sprintf("insert share %d", id), err)
		}
		rows := make([]interface{}, 0, len(fsoIDs))
		for _, fsoID := range fsoIDs {
			rows = append(rows, models.SharedObject{ShareID: id, FsoID: fsoID})
		}
		if _, err := r.objects.InsertMany(sessCtx, rows); err != nil {
			return storageErr(fmt.Sprintf("insert objects of share %d", id), err)
		}
		return nil
	})
}

func (r *ShareRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Share, error) {
	var share models.Share
	err := r.shares.FindOne(ctx, bson.M{"public_id": publicID}).Decode(&share)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("share %q: %w", publicID, services.ErrNotFound)
	} else if err != nil {
		return nil, storageErr(fmt.Sprintf("find share %q", publicID), err)
	}
	return &share, nil
}

func (r *ShareRepository) GetByUser(ctx context.Context, userID string) ([]models.Share, error) {
	cursor, err := r.shares.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"share_date": -1}),
	)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("find shares of user %s", userID), err)
	}
	defer cursor.Close(ctx)

	shares := []models.Share{}
	if err := cursor.All(ctx, &shares); err != nil {
		return nil, storageErr("decode shares", err)
	}
	return shares, nil
}

// All lists every share; used by the prune job.
func (r *ShareRepository) All(ctx context.Context) ([]models.Share, error) {
	cursor, err := r.shares.Find(ctx, bson.M{})
	if err != nil {
		return nil, storageErr("find shares", err)
	}
	defer cursor.Close(ctx)

	shares := []models.Share{}
	if err := cursor.All(ctx, &shares); err != nil {
		return nil, storageErr("decode shares", err)
	}
	return shares, nil
}

func (r *ShareRepository) ObjectIDs(ctx context.Context, shareID int64) ([]int64, error) {
	cursor, err := r.objects.Find(ctx, bson.M{"share_id": shareID})
	if err != nil {
		return nil, storageErr(fmt.Sprintf("find objects of share %d", shareID), err)
	}
	defer cursor.Close(ctx)

	ids := []int64{}
	for cursor.Next(ctx) {
		var row models.SharedObject
		if err := cursor.Decode(&row); err != nil {
			return nil, storageErr("decode shared object", err)
		}
		ids = append(ids, row.FsoID)
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("iterate shared objects", err)
	}
	return ids, nil
}

func (r *ShareRepository) RemoveObjects(ctx context.Context, shareID int64, fsoIDs []int64) error {
	if len(fsoIDs) == 0 {
		return nil
	}
	_, err := r.objects.DeleteMany(ctx, bson.M{
		"share_id": shareID,
		"fso_id":   bson.M{"$in": fsoIDs},
	})
	if err != nil {
		return storageErr(fmt.Sprintf("remove objects of share %d", shareID), err)
	}
	return nil
}

// Delete removes the share and its object rows; the FSOs themselves are out
// of reach here by design.
func (r *ShareRepository) Delete(ctx context.Context, shareID int64) error {
	return r.store.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := r.objects.DeleteMany(sessCtx, bson.M{"share_id": shareID}); err != nil {
			return storageErr(fmt.Sprintf("delete objects of share %d", shareID), err)
		}
		res, err := r.shares.DeleteOne(sessCtx, bson.M{"_id": shareID})
		if err != nil {
			return storageErr(fmt.Sprintf("delete share %d", shareID), err)
		}
		if res.DeletedCount == 0 {
			return fmt.Errorf("share %d: %w", shareID, services.ErrNotFound)
		}
		return nil
	})
}
