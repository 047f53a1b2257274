package history

import (
	"context"
	"sort"

	"github.com/daydemir/ci-recovery/internal/types"
)

// CommonErrorLimit is how many messages RecoveryStats.CommonErrors holds
const CommonErrorLimit = 5

// ComputeStats derives aggregate statistics from attempts.
// Nothing is cached: the log is the single source of truth.
func ComputeStats(attempts []types.RecoveryAttempt) types.RecoveryStats {
	stats := types.RecoveryStats{
		TotalAttempts: len(attempts),
		CommonErrors:  []string{},
	}
	if len(attempts) == 0 {
		return stats
	}

	successful := 0
	var totalDuration int64
	counts := make(map[string]int)
	var order []string

	for _, attempt := range attempts {
		if attempt.Success {
			successful++
		}
		totalDuration += attempt.Duration
		for _, e := range attempt.Errors {
			if _, seen := counts[e.Message]; !seen {
				order = append(order, e.Message)
			}
			counts[e.Message]++
		}
	}

	stats.SuccessRate = float64(successful) / float64(len(attempts))
	stats.AverageDuration = float64(totalDuration) / float64(len(attempts))

	// Stable sort keeps first-seen order among equal counts
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > CommonErrorLimit {
		order = order[:CommonErrorLimit]
	}
	stats.CommonErrors = append(stats.CommonErrors, order...)

	return stats
}

// Stats loads every attempt from store and computes the aggregate view
func Stats(ctx context.Context, store Store) (types.RecoveryStats, error) {
	attempts, err := store.List(ctx)
	if err != nil {
		return types.RecoveryStats{CommonErrors: []string{}}, err
	}
	return ComputeStats(attempts), nil
}

// ErrorCounts returns how often each message appears across attempts
func ErrorCounts(attempts []types.RecoveryAttempt) map[string]int {
	counts := make(map[string]int)
	for _, attempt := range attempts {
		for _, e := range attempt.Errors {
			counts[e.Message]++
		}
	}
	return counts
}
