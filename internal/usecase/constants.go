package usecase

import "time"

const (
	// AccountNumberCacheTTL bounds how long a number-to-id mapping is
	// cached. The mapping never changes; the TTL only bounds cache size.
	AccountNumberCacheTTL = 24 * time.Hour

	// OutboxBatchSize is how many unpublished events a publisher poll
	// fetches at once.
	OutboxBatchSize = 100
)
