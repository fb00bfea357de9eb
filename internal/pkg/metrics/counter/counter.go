package counter

import (
	"context"
	"strconv"

	"github.com/MartinKaiser/FinCal/internal/pkg/cache"
)

const (
	jobRunsKey              = "jobs:counters:runs"
	transactionsBookedKey   = "jobs:counters:transactions_booked"
	notificationsCreatedKey = "jobs:counters:notifications_created"
)

// AddJobRun increments the run counter for a scheduled job in Redis
func AddJobRun(job string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, jobRunsKey, job, 1).Err()
}

// AddTransactionsBooked adds the number of transactions booked by one run
func AddTransactionsBooked(n int) error {
	if n == 0 {
		return nil
	}
	ctx := context.Background()
	return cache.GetClient().IncrBy(ctx, transactionsBookedKey, int64(n)).Err()
}

// AddNotificationsCreated adds the number of notifications created by one sweep
func AddNotificationsCreated(n int) error {
	if n == 0 {
		return nil
	}
	ctx := context.Background()
	return cache.GetClient().IncrBy(ctx, notificationsCreatedKey, int64(n)).Err()
}

// JobRuns returns the accumulated run counts per job
func JobRuns() (map[string]int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, jobRunsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for job, raw := range data {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out[job] = v
		}
	}
	return out, nil
}
