package matcher

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/harborquant/xvenue-arb/pkg/cache"
)

// Similarity scores how alike two strings are, in [0, 1].
type Similarity interface {
	Score(a, b string) float64
}

// LexicalSimilarity scores via a longest-common-subsequence ratio over
// whitespace tokens. Always available, no external dependency.
type LexicalSimilarity struct{}

func (LexicalSimilarity) Score(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	lcs := lcsLength(ta, tb)
	return 2 * float64(lcs) / float64(len(ta)+len(tb))
}

func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Embedder is an external collaborator that turns text into a vector.
// It is optional; SemanticSimilarity degrades to lexical scoring when nil
// or erroring.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SemanticSimilarity wraps an Embedder with a read-through cache of
// embedding vectors, falling back to LexicalSimilarity whenever the
// embedder is unavailable. Cosine similarity is computed locally: the
// pgvector wire type only carries the vector, the similarity operator
// itself lives in Postgres SQL, not in the Go client.
type SemanticSimilarity struct {
	Embedder Embedder
	Cache    cache.Cache
	Fallback Similarity
	Logger   *zap.Logger
	TTLCache time.Duration
}

func (s SemanticSimilarity) Score(a, b string) float64 {
	if s.Embedder == nil {
		return s.fallback().Score(a, b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	va, okA := s.embedding(ctx, a)
	vb, okB := s.embedding(ctx, b)
	if !okA || !okB {
		return s.fallback().Score(a, b)
	}

	return cosineSimilarity(va, vb)
}

func (s SemanticSimilarity) fallback() Similarity {
	if s.Fallback != nil {
		return s.Fallback
	}
	return LexicalSimilarity{}
}

func (s SemanticSimilarity) embedding(ctx context.Context, text string) (pgvector.Vector, bool) {
	key := fmt.Sprintf("embedding:%s", text)

	if s.Cache != nil {
		if v, found := s.Cache.Get(key); found {
			if vec, ok := v.(pgvector.Vector); ok {
				embeddingCacheHits.Inc()
				return vec, true
			}
		}
	}
	embeddingCacheMisses.Inc()

	raw, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("embedder-failed", zap.Error(err), zap.String("text", text))
		}
		return pgvector.Vector{}, false
	}

	vec := pgvector.NewVector(raw)
	if s.Cache != nil {
		ttl := s.TTLCache
		if ttl == 0 {
			ttl = 24 * time.Hour
		}
		s.Cache.Set(key, vec, ttl)
	}
	return vec, true
}

func cosineSimilarity(a, b pgvector.Vector) float64 {
	va := a.Slice()
	vb := b.Slice()
	if len(va) != len(vb) || len(va) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range va {
		dot += float64(va[i]) * float64(vb[i])
		normA += float64(va[i]) * float64(va[i])
		normB += float64(vb[i]) * float64(vb[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
