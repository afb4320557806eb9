package recommend

import (
	"errors"
	"math"
	"testing"

	"github.com/forkcast/forkcast/internal/profile"
	"github.com/forkcast/forkcast/internal/tfidf"
)

// testEngine fits the three-restaurant corpus used throughout: A shares
// both terms of the "spicy chicken" query, B and C share none.
func testEngine(t *testing.T) *Engine {
	t.Helper()

	entries := []tfidf.Entry{
		{Restaurant: "A", Text: "spicy chicken rice"},
		{Restaurant: "B", Text: "romantic wine ambience"},
		{Restaurant: "C", Text: "quick lunch cheap"},
	}
	v, m, index, err := tfidf.Fit(entries, tfidf.Options{})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	return &Engine{
		Profiles: []profile.Profile{
			{Restaurant: "A", AvgRating: 4.5, NumReviews: 100, SampleReview: "spicy chicken rice"},
			{Restaurant: "B", AvgRating: 4.0, NumReviews: 50, SampleReview: "romantic wine ambience"},
			{Restaurant: "C", AvgRating: 3.8, NumReviews: 30, SampleReview: "quick lunch cheap"},
		},
		Vectorizer: v,
		Matrix:     m,
		Index:      index,
		Weights:    DefaultWeights(),
	}
}

func TestFromTextEndToEnd(t *testing.T) {
	engine := testEngine(t)

	results, err := engine.FromText("spicy chicken", 2)
	if err != nil {
		t.Fatalf("FromText() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("FromText() returned %d results, want exactly 2", len(results))
	}
	if results[0].Restaurant != "A" {
		t.Errorf("top result = %q, want A (shares both query terms)", results[0].Restaurant)
	}
	if results[0].Similarity <= 0 || results[0].Similarity > 1 {
		t.Errorf("A similarity = %f, want within (0, 1]", results[0].Similarity)
	}
	if results[0].FinalScore <= results[1].FinalScore {
		t.Errorf("results not ordered by final score: %f then %f",
			results[0].FinalScore, results[1].FinalScore)
	}
	if results[0].NumReviews != 100 || results[0].AvgRating != 4.5 {
		t.Errorf("result profile fields not carried through: %+v", results[0])
	}
}

func TestFromTextInvalidQuery(t *testing.T) {
	engine := testEngine(t)

	tests := []struct {
		name  string
		query string
	}{
		{name: "empty", query: ""},
		{name: "whitespace only", query: "   \t  "},
		{name: "two characters", query: "ab"},
		{name: "two characters padded", query: "  ab  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.FromText(tt.query, 5)
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("FromText(%q) error = %v, want ErrInvalidQuery", tt.query, err)
			}
		})
	}
}

func TestSimilarToExcludesSeed(t *testing.T) {
	engine := testEngine(t)

	results, err := engine.SimilarTo("A", 10)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("SimilarTo() returned %d results, want 2 (seed excluded)", len(results))
	}
	for _, r := range results {
		if r.Restaurant == "A" {
			t.Errorf("seed restaurant appeared in its own recommendations")
		}
	}
}

func TestSimilarToUnknownSeed(t *testing.T) {
	engine := testEngine(t)

	_, err := engine.SimilarTo("Nowhere Diner", 5)
	if !errors.Is(err, ErrUnknownRestaurant) {
		t.Errorf("SimilarTo() error = %v, want ErrUnknownRestaurant", err)
	}
}

func TestTopNMonotonicity(t *testing.T) {
	engine := testEngine(t)

	prev := -1
	for topN := 0; topN <= 5; topN++ {
		results, err := engine.FromText("spicy chicken", topN)
		if err != nil {
			t.Fatalf("FromText() error = %v", err)
		}
		if len(results) < prev {
			t.Errorf("top_n=%d returned %d results, fewer than top_n=%d's %d",
				topN, len(results), topN-1, prev)
		}
		if len(results) > topN {
			t.Errorf("top_n=%d returned %d results", topN, len(results))
		}
		if len(results) > 3 {
			t.Errorf("returned more results than candidates")
		}
		prev = len(results)
	}
}

func TestRankAllEqualRatings(t *testing.T) {
	engine := testEngine(t)
	for i := range engine.Profiles {
		engine.Profiles[i].AvgRating = 4.0
	}

	results, err := engine.FromText("spicy chicken", 3)
	if err != nil {
		t.Fatalf("FromText() error = %v", err)
	}

	// all-equal ratings normalize to 1.0, so every final score includes
	// the full rating weight; nothing may be NaN
	for _, r := range results {
		if math.IsNaN(r.FinalScore) {
			t.Fatalf("final score is NaN for %q", r.Restaurant)
		}
	}
	// C has zero similarity and the lowest popularity; its score must be
	// exactly rating weight * 1.0 + popularity weight * 0
	var c Result
	for _, r := range results {
		if r.Restaurant == "C" {
			c = r
		}
	}
	want := engine.Weights.Rating
	if math.Abs(c.FinalScore-want) > 1e-9 {
		t.Errorf("C final score = %f, want %f (rating norm forced to 1.0)", c.FinalScore, want)
	}
}

func TestRankTieBreakByName(t *testing.T) {
	// two restaurants with identical signals everywhere
	entries := []tfidf.Entry{
		{Restaurant: "Zeta", Text: "identical menu text"},
		{Restaurant: "Alpha", Text: "identical menu text"},
		{Restaurant: "Seed", Text: "unrelated corpus entirely"},
	}
	v, m, index, err := tfidf.Fit(entries, tfidf.Options{})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	engine := &Engine{
		Profiles: []profile.Profile{
			{Restaurant: "Zeta", AvgRating: 4.0, NumReviews: 10},
			{Restaurant: "Alpha", AvgRating: 4.0, NumReviews: 10},
			{Restaurant: "Seed", AvgRating: 4.0, NumReviews: 10},
		},
		Vectorizer: v,
		Matrix:     m,
		Index:      index,
		Weights:    DefaultWeights(),
	}

	results, err := engine.SimilarTo("Seed", 2)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Restaurant != "Alpha" || results[1].Restaurant != "Zeta" {
		t.Errorf("tied scores not ordered by name: got %q then %q",
			results[0].Restaurant, results[1].Restaurant)
	}
}

func TestRankMissingFromIndex(t *testing.T) {
	engine := testEngine(t)
	// a profile with no matrix row gets similarity 0, not an error
	engine.Profiles = append(engine.Profiles, profile.Profile{
		Restaurant: "Unindexed", AvgRating: 5.0, NumReviews: 1,
	})

	results, err := engine.FromText("spicy chicken", 10)
	if err != nil {
		t.Fatalf("FromText() error = %v", err)
	}
	for _, r := range results {
		if r.Restaurant == "Unindexed" && r.Similarity != 0 {
			t.Errorf("unindexed restaurant similarity = %f, want 0", r.Similarity)
		}
	}
}

func TestMinMax(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{
			name:   "spread values",
			values: []float64{1, 3, 2},
			want:   []float64{0, 1, 0.5},
		},
		{
			name:   "all equal",
			values: []float64{4, 4, 4},
			want:   []float64{1, 1, 1},
		},
		{
			name:   "empty",
			values: nil,
			want:   []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := minMax(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("minMax(%v) length = %d, want %d", tt.values, len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("minMax(%v)[%d] = %f, want %f", tt.values, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	if w.Similarity != 0.65 || w.Rating != 0.25 || w.Popularity != 0.10 {
		t.Errorf("DefaultWeights() = %+v", w)
	}
}
