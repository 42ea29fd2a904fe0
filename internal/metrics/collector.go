package metrics

import (
	"context"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/model"
	"gorm.io/gorm"
)

// Collector periodically refreshes the gauges that are projections of
// database state: pool stats and the negative cost-center count.
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector creates a collector.
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins collecting in the background.
func (c *Collector) Start() {
	go c.collect()
}

// Stop stops the collector and waits for the loop to exit.
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.refreshNegativeBalances()
		}
	}
}

func (c *Collector) refreshNegativeBalances() {
	var count int64
	if err := c.db.Model(&model.CostCenterModel{}).
		Where("current_budget < 0").
		Count(&count).Error; err != nil {
		return
	}
	SetNegativeCostCenters(float64(count))
}
