package cache

import "time"

const (
	ExpiryDefaultInMemory = 30 * time.Minute
	ExpiryPlan            = 10 * time.Minute
	ExpiryCleanupInterval = 10 * time.Minute
)
