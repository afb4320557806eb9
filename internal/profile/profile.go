// Package profile aggregates cleaned reviews into per-restaurant records:
// a ranking profile (rating, popularity, sample review) and a text corpus
// for the term-weighting index.
//
// Both builders group by restaurant name in encounter order, so the two
// outputs always cover exactly the same restaurant set.
package profile

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/forkcast/forkcast/internal/normalize"
)

// Profile holds the ranking signals for one restaurant. Built once per
// pipeline run and immutable afterward.
type Profile struct {
	Restaurant   string     `json:"restaurant"`
	AvgRating    float64    `json:"avg_rating"`
	NumReviews   int        `json:"num_reviews"`
	LatestReview *time.Time `json:"latest_review,omitempty"`
	SampleReview string     `json:"sample_review"`
}

// CorpusEntry is the concatenated review text for one restaurant.
type CorpusEntry struct {
	Restaurant string
	Text       string
}

// BuildProfiles groups reviews by restaurant and derives ranking signals.
//
// AvgRating is the mean of present ratings; restaurants with no rated
// reviews are imputed with the median of the other restaurants' means,
// computed once after all means are known. SampleReview is the first
// surviving review's text in encounter order.
func BuildProfiles(reviews []normalize.Review) []Profile {
	type agg struct {
		ratingSum   float64
		ratingCount int
		numReviews  int
		latest      *time.Time
		sample      string
	}

	order := make([]string, 0)
	groups := make(map[string]*agg)

	for _, r := range reviews {
		g, ok := groups[r.Restaurant]
		if !ok {
			g = &agg{sample: r.Text}
			groups[r.Restaurant] = g
			order = append(order, r.Restaurant)
		}
		g.numReviews++
		if r.Rating != nil {
			g.ratingSum += *r.Rating
			g.ratingCount++
		}
		if r.Time != nil && (g.latest == nil || r.Time.After(*g.latest)) {
			t := *r.Time
			g.latest = &t
		}
	}

	profiles := make([]Profile, 0, len(order))
	means := make([]float64, 0, len(order))
	for _, name := range order {
		g := groups[name]
		p := Profile{
			Restaurant:   name,
			NumReviews:   g.numReviews,
			LatestReview: g.latest,
			SampleReview: g.sample,
		}
		if g.ratingCount > 0 {
			p.AvgRating = g.ratingSum / float64(g.ratingCount)
			means = append(means, p.AvgRating)
		}
		profiles = append(profiles, p)
	}

	// impute missing ratings with the median of the known means
	if len(means) > 0 {
		med := median(means)
		for i := range profiles {
			if groups[profiles[i].Restaurant].ratingCount == 0 {
				profiles[i].AvgRating = med
			}
		}
	}

	slog.Debug("Built restaurant profiles", "restaurants", len(profiles))
	return profiles
}

// BuildCorpus groups reviews by restaurant and joins their cleaned texts
// with single spaces, in encounter order.
func BuildCorpus(reviews []normalize.Review) []CorpusEntry {
	order := make([]string, 0)
	texts := make(map[string][]string)

	for _, r := range reviews {
		if _, ok := texts[r.Restaurant]; !ok {
			order = append(order, r.Restaurant)
		}
		texts[r.Restaurant] = append(texts[r.Restaurant], r.Text)
	}

	entries := make([]CorpusEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, CorpusEntry{
			Restaurant: name,
			Text:       strings.TrimSpace(strings.Join(texts[name], " ")),
		})
	}

	slog.Debug("Built restaurant corpus", "restaurants", len(entries))
	return entries
}

// median returns the median of values; for even counts, the mean of the
// two middle values.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
