// Package recommend ranks restaurants with a hybrid score: cosine text
// similarity from the term-weight index, fused with min-max normalized
// rating and log-scaled review-count popularity.
//
// An Engine is an immutable handle over the fitted artifacts; it never
// mutates them, so any number of queries may run concurrently. Every query
// builds its own transient result rows.
package recommend

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/forkcast/forkcast/internal/profile"
	"github.com/forkcast/forkcast/internal/tfidf"
)

// ErrUnknownRestaurant indicates the seed restaurant is not in the index.
// Recoverable: the caller should re-prompt with a known name.
var ErrUnknownRestaurant = errors.New("unknown restaurant")

// ErrInvalidQuery indicates a free-text query shorter than 3 characters
// after trimming. Recoverable: the caller should re-prompt.
var ErrInvalidQuery = errors.New("invalid query")

// Weights blends the three ranking signals into the final score. The
// weights are deliberately unconstrained: they are not validated to sum
// to 1, so callers may over- or under-emphasize any signal.
type Weights struct {
	Similarity float64
	Rating     float64
	Popularity float64
}

// DefaultWeights returns the standard blend, favoring text similarity.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.65, Rating: 0.25, Popularity: 0.10}
}

// Result is one ranked recommendation. Produced fresh per query; never
// persisted.
type Result struct {
	Restaurant   string  `json:"restaurant"`
	FinalScore   float64 `json:"final_score"`
	Similarity   float64 `json:"similarity"`
	AvgRating    float64 `json:"avg_rating"`
	NumReviews   int     `json:"num_reviews"`
	SampleReview string  `json:"sample_review"`
}

// Engine bundles the fitted artifacts and profiles needed to answer
// queries. Treat all fields as read-only after construction.
type Engine struct {
	Profiles   []profile.Profile
	Vectorizer *tfidf.Vectorizer
	Matrix     *tfidf.Matrix
	Index      map[string]int
	Weights    Weights
}

// SimilarTo recommends up to topN restaurants similar to the seed
// restaurant. The seed itself is never part of the results.
//
// Fails with ErrUnknownRestaurant when seed is absent from the index.
func (e *Engine) SimilarTo(seed string, topN int) ([]Result, error) {
	row, ok := e.Index[seed]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRestaurant, seed)
	}

	sims := e.Matrix.Similarities(e.Matrix.Row(row))
	slog.Debug("Computed seed similarities", "seed", seed, "row", row, "candidates", len(sims))
	return e.rank(sims, seed, topN), nil
}

// FromText recommends up to topN restaurants matching a free-text
// preference query, vectorized with the fitted vocabulary and idf weights.
//
// Fails with ErrInvalidQuery when the trimmed query has fewer than 3
// characters (including empty and all-whitespace queries).
func (e *Engine) FromText(query string, topN int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 characters", ErrInvalidQuery)
	}

	sims := e.Matrix.Similarities(e.Vectorizer.Transform(query))
	slog.Debug("Computed query similarities", "queryLength", len(query), "candidates", len(sims))
	return e.rank(sims, "", topN), nil
}

// rank is the shared ranking core: it assembles candidate rows (excluding
// the named restaurant, if any), normalizes the rating and popularity
// signals across the candidate set, blends the final score, and returns
// the top N in deterministic order.
func (e *Engine) rank(sims []float64, exclude string, topN int) []Result {
	results := make([]Result, 0, len(e.Profiles))
	ratings := make([]float64, 0, len(e.Profiles))
	pops := make([]float64, 0, len(e.Profiles))

	for _, p := range e.Profiles {
		if p.Restaurant == exclude {
			continue
		}
		// restaurants outside the index get similarity 0 rather than
		// disappearing from the ranking
		sim := 0.0
		if row, ok := e.Index[p.Restaurant]; ok && row >= 0 && row < len(sims) {
			sim = sims[row]
		}
		results = append(results, Result{
			Restaurant:   p.Restaurant,
			Similarity:   sim,
			AvgRating:    p.AvgRating,
			NumReviews:   p.NumReviews,
			SampleReview: p.SampleReview,
		})
		ratings = append(ratings, p.AvgRating)
		pops = append(pops, math.Log1p(float64(max(p.NumReviews, 0))))
	}

	ratingNorm := minMax(ratings)
	popNorm := minMax(pops)
	for i := range results {
		results[i].FinalScore = e.Weights.Similarity*results[i].Similarity +
			e.Weights.Rating*ratingNorm[i] +
			e.Weights.Popularity*popNorm[i]
	}

	// descending by final score; equal scores order by name ascending so
	// rankings are reproducible across runs
	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].Restaurant < results[j].Restaurant
	})

	if topN < 0 {
		topN = 0
	}
	if topN < len(results) {
		results = results[:topN]
	}
	return results
}

// minMax rescales values linearly to [0, 1]. When all values are equal
// (span below 1e-12) every entry maps to 1.0: an all-equal signal treats
// every candidate as best instead of dividing by zero.
func minMax(values []float64) []float64 {
	scaled := make([]float64, len(values))
	if len(values) == 0 {
		return scaled
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if hi-lo < 1e-12 {
		for i := range scaled {
			scaled[i] = 1.0
		}
		return scaled
	}
	for i, v := range values {
		scaled[i] = (v - lo) / (hi - lo)
	}
	return scaled
}
