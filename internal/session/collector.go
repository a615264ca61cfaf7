package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/models"
)

// Collector funnels decoded readings from the scanner's callback (which
// the BLE stack may invoke from its own goroutine) into an Aggregator
// through a single channel, so the aggregator only ever sees one logical
// thread of control.
type Collector struct {
	agg      *Aggregator
	readings chan *models.Reading
	logger   zerolog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewCollector creates a collector feeding the given aggregator and
// starts its consumer goroutine.
func NewCollector(agg *Aggregator, logger zerolog.Logger) *Collector {
	c := &Collector{
		agg:      agg,
		readings: make(chan *models.Reading, 64),
		logger:   logger,
	}

	c.wg.Add(1)
	go c.consume()

	return c
}

// Offer queues a reading for aggregation. Safe to call from any
// goroutine until Close.
func (c *Collector) Offer(r *models.Reading) {
	c.readings <- r
}

func (c *Collector) consume() {
	defer c.wg.Done()
	for r := range c.readings {
		c.agg.Ingest(r)
		c.logger.Debug().
			Str("address", r.Address).
			Str("model", r.ModelName).
			Msg("reading aggregated")
	}
}

// Close drains pending readings and returns the final session snapshot.
func (c *Collector) Close() []*models.Reading {
	c.closeOnce.Do(func() {
		close(c.readings)
	})
	c.wg.Wait()
	return c.agg.Snapshot()
}
