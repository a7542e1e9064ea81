// Package telemetry records local query metrics for a project: how often
// searches run, which terms they use, how many come back empty or
// degraded, and how long they take. Data stays in the project cache
// directory; nothing is reported anywhere.
package telemetry

import (
	"strings"
	"time"

	"github.com/Aman-CERP/coderag/internal/outcome"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// QueryEvent is one search as seen by the caller.
type QueryEvent struct {
	Query     string
	Status    outcome.Status
	Results   int
	Latency   time.Duration
	Timestamp time.Time
}

// IsZeroResult reports whether the search returned nothing.
func (e QueryEvent) IsZeroResult() bool {
	return e.Results == 0
}

// ExtractTerms returns the distinct lowercased words of query that are at
// least three bytes long, in first-seen order.
func ExtractTerms(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	var terms []string
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}

// TermCount is a query term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Summary aggregates everything recorded so far.
type Summary struct {
	TotalQueries      int64                   `json:"total_queries"`
	ZeroResultCount   int64                   `json:"zero_result_count"`
	DegradedCount     int64                   `json:"degraded_count"`
	TopTerms          []TermCount             `json:"top_terms"`
	RecentZeroResults []string                `json:"recent_zero_results"`
	Latency           map[LatencyBucket]int64 `json:"latency"`
}

// ZeroResultPercentage returns the share of searches that found nothing.
func (s Summary) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}
