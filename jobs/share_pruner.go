package jobs

import (
	"context"
	"time"

	"stratusdrive/models"

	"go.uber.org/zap"
)

// shareSource is the slice of the share repository the pruner needs.
type shareSource interface {
	All(ctx context.Context) ([]models.Share, error)
	ObjectIDs(ctx context.Context, shareID int64) ([]int64, error)
	RemoveObjects(ctx context.Context, shareID int64, fsoIDs []int64) error
	Delete(ctx context.Context, shareID int64) error
}

// fsoSource resolves which FSO ids still exist.
type fsoSource interface {
	GetByIDs(ctx context.Context, ids []int64) ([]models.FSO, error)
}

// SharePruner periodically drops share rows whose FSOs have been deleted.
// Reads already filter dangling rows out, so this is housekeeping that keeps
// the shared_objects collection from accumulating garbage and retires shares
// with nothing left in them.
type SharePruner struct {
	shares   shareSource
	fsos     fsoSource
	interval time.Duration
}

func NewSharePruner(shares shareSource, fsos fsoSource, interval time.Duration) *SharePruner {
	return &SharePruner{shares: shares, fsos: fsos, interval: interval}
}

// Start runs one prune immediately and then on every tick until ctx ends.
func (p *SharePruner) Start(ctx context.Context) {
	zap.L().Info("starting share pruner", zap.Duration("interval", p.interval))

	p.runPrune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("share pruner stopped")
			return
		case <-ticker.C:
			p.runPrune(ctx)
		}
	}
}

func (p *SharePruner) runPrune(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	shares, err := p.shares.All(runCtx)
	if err != nil {
		zap.L().Error("share prune listing failed", zap.Error(err))
		return
	}

	var removed, retired int
	for i := range shares {
		ids, err := p.shares.ObjectIDs(runCtx, shares[i].ID)
		if err != nil {
			zap.L().Error("share prune lookup failed", zap.Int64("share_id", shares[i].ID), zap.Error(err))
			continue
		}
		alive, err := p.fsos.GetByIDs(runCtx, ids)
		if err != nil {
			zap.L().Error("share prune fso lookup failed", zap.Int64("share_id", shares[i].ID), zap.Error(err))
			continue
		}

		aliveSet := make(map[int64]bool, len(alive))
		for j := range alive {
			aliveSet[alive[j].ID] = true
		}
		var dangling []int64
		for _, id := range ids {
			if !aliveSet[id] {
				dangling = append(dangling, id)
			}
		}
		if len(dangling) == 0 {
			continue
		}

		if len(dangling) == len(ids) {
			if err := p.shares.Delete(runCtx, shares[i].ID); err != nil {
				zap.L().Error("share prune delete failed", zap.Int64("share_id", shares[i].ID), zap.Error(err))
				continue
			}
			retired++
			continue
		}
		if err := p.shares.RemoveObjects(runCtx, shares[i].ID, dangling); err != nil {
			zap.L().Error("share prune trim failed", zap.Int64("share_id", shares[i].ID), zap.Error(err))
			continue
		}
		removed += len(dangling)
	}

	zap.L().Info("share prune completed",
		zap.Int("shares_checked", len(shares)),
		zap.Int("rows_removed", removed),
		zap.Int("shares_retired", retired))
}
