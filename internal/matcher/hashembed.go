package matcher

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/harborquant/xvenue-arb/internal/normalize"
)

// hashEmbedDims is the width of a HashEmbedder vector. Small enough that
// cosine similarity over it is cheap per pair in DuplicateCandidates'
// pairwise scan.
const hashEmbedDims = 64

// HashEmbedder is a dependency-free stand-in for a trained embedding model:
// it maps text to a fixed-width vector via the hashing trick (each token
// hashes to a signed slot), with no learned parameters and no outbound
// calls. It lets SemanticSimilarity's cache-backed vector path run end to
// end without pulling an ML dependency into a paper-trading engine.
type HashEmbedder struct{}

func (HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashEmbedDims)
	for _, tok := range strings.Fields(normalize.Normalize(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		if sum&1 == 0 {
			vec[sum%hashEmbedDims]++
		} else {
			vec[sum%hashEmbedDims]--
		}
	}
	return vec, nil
}
