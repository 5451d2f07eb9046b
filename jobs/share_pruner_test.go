package jobs

import (
	"context"
	"testing"
	"time"

	"stratusdrive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShares struct {
	shares  map[int64]models.Share
	objects map[int64][]int64
}

func (f *fakeShares) All(_ context.Context) ([]models.Share, error) {
	shares := []models.Share{}
	for _, share := range f.shares {
		shares = append(shares, share)
	}
	return shares, nil
}

func (f *fakeShares) ObjectIDs(_ context.Context, shareID int64) ([]int64, error) {
	return append([]int64{}, f.objects[shareID]...), nil
}

func (f *fakeShares) RemoveObjects(_ context.Context, shareID int64, fsoIDs []int64) error {
	remove := map[int64]bool{}
	for _, id := range fsoIDs {
		remove[id] = true
	}
	kept := []int64{}
	for _, id := range f.objects[shareID] {
		if !remove[id] {
			kept = append(kept, id)
		}
	}
	f.objects[shareID] = kept
	return nil
}

func (f *fakeShares) Delete(_ context.Context, shareID int64) error {
	delete(f.shares, shareID)
	delete(f.objects, shareID)
	return nil
}

type fakeFsos struct {
	existing map[int64]bool
}

func (f *fakeFsos) GetByIDs(_ context.Context, ids []int64) ([]models.FSO, error) {
	fsos := []models.FSO{}
	for _, id := range ids {
		if f.existing[id] {
			fsos = append(fsos, models.FSO{ID: id})
		}
	}
	return fsos, nil
}

func TestPruneTrimsDanglingRows(t *testing.T) {
	shares := &fakeShares{
		shares:  map[int64]models.Share{1: {ID: 1, PublicID: "abc", UserID: "u1", ShareDate: time.Now()}},
		objects: map[int64][]int64{1: {10, 11, 12}},
	}
	fsos := &fakeFsos{existing: map[int64]bool{10: true, 12: true}}

	pruner := NewSharePruner(shares, fsos, time.Hour)
	pruner.runPrune(context.Background())

	require.Contains(t, shares.shares, int64(1), "a share with surviving content stays")
	assert.Equal(t, []int64{10, 12}, shares.objects[1])
}

func TestPruneRetiresEmptyShares(t *testing.T) {
	shares := &fakeShares{
		shares:  map[int64]models.Share{1: {ID: 1, PublicID: "abc", UserID: "u1", ShareDate: time.Now()}},
		objects: map[int64][]int64{1: {10, 11}},
	}
	fsos := &fakeFsos{existing: map[int64]bool{}}

	pruner := NewSharePruner(shares, fsos, time.Hour)
	pruner.runPrune(context.Background())

	assert.NotContains(t, shares.shares, int64(1))
	assert.NotContains(t, shares.objects, int64(1))
}

func TestPruneLeavesHealthySharesAlone(t *testing.T) {
	shares := &fakeShares{
		shares:  map[int64]models.Share{1: {ID: 1, PublicID: "abc", UserID: "u1", ShareDate: time.Now()}},
		objects: map[int64][]int64{1: {10}},
	}
	fsos := &fakeFsos{existing: map[int64]bool{10: true}}

	pruner := NewSharePruner(shares, fsos, time.Hour)
	pruner.runPrune(context.Background())

	assert.Contains(t, shares.shares, int64(1))
	assert.Equal(t, []int64{10}, shares.objects[1])
}
