package matcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // prometheus collectors are process-wide singletons
var (
	embeddingCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcher_embedding_cache_hits_total",
		Help: "Embedding cache hits served without calling the embedder.",
	})

	embeddingCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcher_embedding_cache_misses_total",
		Help: "Embedding cache misses that required calling the embedder.",
	})

	duplicateCandidatesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcher_duplicate_candidates_total",
		Help: "Candidate duplicate-market pairs surfaced across venues.",
	})
)
