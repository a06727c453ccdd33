package models

import "time"

// SystemMetrics is a lightweight snapshot of service health counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	UpstreamCalls            uint64    `json:"upstreamCalls"`
	UpstreamFailures         uint64    `json:"upstreamFailures"`
	AverageUpstreamMs        float64   `json:"averageUpstreamMs"`
	SharedFetches            uint64    `json:"sharedFetches"`
	SnapshotsWritten         uint64    `json:"snapshotsWritten"`
	SnapshotsDropped         uint64    `json:"snapshotsDropped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
