package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"railbook/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// seatMapCache is a short-TTL read-through cache for seat map summaries.
// Occupancy changes constantly under booking traffic, so entries are only
// ever slightly stale and expire on their own; there is no invalidation.
// A nil client disables caching entirely.
type seatMapCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func newSeatMapCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *seatMapCache {
	return &seatMapCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (c *seatMapCache) key(segmentID, carriageID string) string {
	return fmt.Sprintf("seatmap:%s:%s", segmentID, carriageID)
}

func (c *seatMapCache) Get(ctx context.Context, segmentID, carriageID string) *SeatMap {
	if c.client == nil {
		return nil
	}

	data, err := c.client.Get(ctx, c.key(segmentID, carriageID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Seat map cache read failed", "segment_id", segmentID, "carriage_id", carriageID, "error", err)
		}
		return nil
	}

	var seatMap SeatMap
	if err := json.Unmarshal(data, &seatMap); err != nil {
		c.log.Warn("Seat map cache entry corrupt, ignoring", "segment_id", segmentID, "carriage_id", carriageID, "error", err)
		return nil
	}
	return &seatMap
}

func (c *seatMapCache) Set(ctx context.Context, seatMap *SeatMap) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(seatMap)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(seatMap.SegmentID, seatMap.CarriageID), data, c.ttl).Err(); err != nil {
		c.log.Warn("Seat map cache write failed", "segment_id", seatMap.SegmentID, "carriage_id", seatMap.CarriageID, "error", err)
	}
}
