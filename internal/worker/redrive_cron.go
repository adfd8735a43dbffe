package worker

// redrive_cron.go
// Background goroutine that periodically moves parked e-mail jobs from the
// DLQ back onto their queue once the SMTP breaker lets traffic through again.
// Jobs that were already redriven MaxRedrives times go to a terminal list.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redriveTickInterval = time.Minute
	redriveBatchSize    = 10

	// MaxRedrives bounds how often one job cycles through the DLQ.
	MaxRedrives = 2

	deadSuffix = ":dead"
)

// RedriveCronConfig holds all dependencies for the redrive goroutine.
type RedriveCronConfig struct {
	RDB   *redis.Client
	CB    *infra.CircuitBreaker
	Queue string
}

// StartRedriveCron launches a goroutine that ticks every minute and redrives
// up to redriveBatchSize parked jobs. It respects ctx for graceful shutdown.
func StartRedriveCron(ctx context.Context, cfg RedriveCronConfig) {
	go func() {
		ticker := time.NewTicker(redriveTickInterval)
		defer ticker.Stop()

		log.Info().Str("queue", cfg.Queue).Msg("redrive_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("redrive_cron: shutting down")
				return
			case <-ticker.C:
				processRedrives(ctx, cfg)
			}
		}
	}()
}

// redriveTarget decides where a parked entry goes next: back to its queue,
// or to the terminal list when it cannot succeed by being retried.
func redriveTarget(entry DLQEntry) (key string, job Job, ok bool) {
	if entry.JobType == "" || entry.Redrives >= MaxRedrives {
		return DLQPrefix + entry.OriginalQueue + deadSuffix, Job{}, false
	}
	job = Job{Type: entry.JobType, Payload: entry.Payload, Redrives: entry.Redrives + 1}
	return entry.OriginalQueue, job, true
}

func processRedrives(ctx context.Context, cfg RedriveCronConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("redrive_cron: circuit breaker is open, skipping tick")
		return
	}

	dlqKey := DLQPrefix + cfg.Queue
	moved, dead := 0, 0
	for i := 0; i < redriveBatchSize; i++ {
		raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			log.Error().Err(err).Str("dlq_key", dlqKey).Msg("redrive_cron: pop failed")
			return
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("redrive_cron: dropping unreadable entry")
			continue
		}
		if entry.OriginalQueue == "" {
			entry.OriginalQueue = cfg.Queue
		}

		key, job, ok := redriveTarget(entry)
		if !ok {
			if err := cfg.RDB.LPush(ctx, key, raw).Err(); err != nil {
				log.Error().Err(err).Str("key", key).Msg("redrive_cron: failed to park dead entry")
			}
			dead++
			continue
		}
		if err := push(ctx, cfg.RDB, key, job); err != nil {
			log.Error().Err(err).Str("queue", key).Msg("redrive_cron: requeue failed, restoring entry")
			_ = cfg.RDB.RPush(ctx, dlqKey, raw).Err()
			return
		}
		moved++

		// The breaker may have tripped on jobs already redriven this tick.
		if cfg.CB.State() == infra.CBOpen {
			break
		}
	}

	if moved > 0 || dead > 0 {
		log.Info().
			Str("queue", cfg.Queue).
			Int("redriven", moved).
			Int("dead", dead).
			Msg("redrive_cron: processed parked jobs")
	}
}
