package relay

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/photon-storage/go-common/log"

	"github.com/photon-storage/idea-market/database/orm"
)

// Relay publishes committed outbox events that are not yet marked
// published, lowest id first. Delivery is at least once.
type Relay struct {
	ctx             context.Context
	refreshInterval uint64
	batchSize       int
	db              *gorm.DB
	publisher       Publisher
	clock           clock.Clock
	quit            chan struct{}
}

// New returns the new instance of Relay.
func New(
	ctx context.Context,
	refreshInterval uint64,
	batchSize int,
	db *gorm.DB,
	publisher Publisher,
	clk clock.Clock,
) (*Relay, error) {
	st, err := status(db)
	if err != nil {
		return nil, err
	}
	log.Info("relay starting", "published", st.Published, "last_id", st.LastID)

	return &Relay{
		ctx:             ctx,
		refreshInterval: refreshInterval,
		batchSize:       batchSize,
		db:              db,
		publisher:       publisher,
		clock:           clk,
		quit:            make(chan struct{}),
	}, nil
}

// Run executing the timing task of publishing events.
func (r *Relay) Run() {
	ticker := r.clock.Ticker(time.Duration(r.refreshInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return

		case <-r.ctx.Done():
			return

		case <-ticker.C:

		}

		for {
			n, err := r.publishBatch(r.ctx)
			if err != nil {
				log.Error("relay fail on publish events", "error", err)
				break
			}
			if n < r.batchSize {
				break
			}
		}
	}
}

// Stop exits relay
func (r *Relay) Stop() {
	close(r.quit)
}

// publishBatch publishes the next batch of unpublished events. Events
// are only marked once the whole batch is out, a failed batch is sent
// again on the next attempt.
func (r *Relay) publishBatch(ctx context.Context) (int, error) {
	evs := make([]*orm.Event, 0, r.batchSize)
	if err := r.db.WithContext(ctx).
		Model(&orm.Event{}).
		Where("published = ?", false).
		Order("id").
		Limit(r.batchSize).
		Find(&evs).
		Error; err != nil {
		return 0, errors.Wrap(err, "query events")
	}
	if len(evs) == 0 {
		return 0, nil
	}

	ids := make([]uint64, 0, len(evs))
	for _, ev := range evs {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			return 0, err
		}
		ids = append(ids, ev.ID)
	}

	last := ids[len(ids)-1]
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return markPublished(tx, ids, last)
	}); err != nil {
		return 0, err
	}

	log.Info("relay published events", "count", len(evs), "last_id", last)
	return len(evs), nil
}

func status(db *gorm.DB) (*orm.RelayStatus, error) {
	rs := &orm.RelayStatus{}
	if err := db.Model(rs).Where("id = 1").First(rs).Error; err != nil {
		return nil, errors.Wrap(err, "query relay status")
	}

	return rs, nil
}

func markPublished(tx *gorm.DB, ids []uint64, last uint64) error {
	result := tx.Model(&orm.Event{}).
		Where("id IN ?", ids).
		Where("published = ?", false).
		Update("published", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, "mark events published")
	}

	if err := tx.Model(&orm.RelayStatus{}).Where("id = 1").Updates(
		map[string]interface{}{
			"published": gorm.Expr("published + ?", result.RowsAffected),
			"last_id":   last,
		}).Error; err != nil {
		return errors.Wrap(err, "update relay status")
	}

	return nil
}
