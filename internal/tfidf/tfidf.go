// Package tfidf builds a term-weighted text index over per-restaurant
// review corpora.
//
// Fit learns a vocabulary of unigrams and bigrams (stop words removed,
// document-frequency thresholds applied) and produces a sparse document-term
// weight matrix with one L2-normalized row per restaurant. Weights are the
// smoothed tf-idf statistic: raw term count scaled by ln((1+N)/(1+df)) + 1.
// Because rows are unit-length and non-negative, cosine similarity between
// any two rows reduces to their dot product and lies in [0, 1].
//
// Fitting is deterministic: the same corpus and options always yield the
// same vocabulary, idf weights, and matrix values. A fitted Vectorizer is
// immutable and safe for concurrent Transform calls.
package tfidf

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball"
)

// ErrSchema indicates the fit input was empty or structurally invalid.
var ErrSchema = errors.New("corpus schema error")

// tokenRegex matches runs of two or more word characters, compiled once at
// package initialization
var tokenRegex = regexp.MustCompile(`\w\w+`)

// Entry is one restaurant's concatenated review text.
type Entry struct {
	Restaurant string
	Text       string
}

// Options controls vocabulary construction.
type Options struct {
	// MinDF is the minimum document frequency for a term to enter the
	// vocabulary. Zero selects the adaptive default: 2 for corpora of 20+
	// documents, 1 for smaller ones (tiny corpora would otherwise prune
	// the whole vocabulary).
	MinDF int

	// MaxDFRatio drops terms present in more than this fraction of
	// documents; such terms carry no discriminative signal. Zero selects
	// the default 0.95.
	MaxDFRatio float64

	// Stem applies snowball English stemming to tokens before n-gram
	// assembly. Off by default; must match between fit and query time,
	// which the Vectorizer guarantees by recording it.
	Stem bool
}

// Vectorizer is the fitted vocabulary and idf state. All fields are
// exported for serialization; treat a fitted Vectorizer as read-only.
type Vectorizer struct {
	// Vocabulary maps each term to its column id in the weight matrix.
	Vocabulary map[string]int
	// Terms lists terms by column id (the sorted-term order fixes column
	// assignment deterministically).
	Terms []string
	// IDF holds the inverse-document-frequency weight per column.
	IDF []float64
	// Stem records whether tokens were stemmed during fit.
	Stem bool
}

// Fit builds the vocabulary, weight matrix, and restaurant index from a
// corpus. Row ids follow the corpus iteration order, contiguous from 0.
//
// Fails with ErrSchema when entries is empty, an entry has an empty
// restaurant name, or restaurant names repeat. A corpus with fewer than
// two distinct non-empty documents is legal but may yield an empty or
// near-empty vocabulary; downstream similarity will be uniformly zero.
func Fit(entries []Entry, opts Options) (*Vectorizer, *Matrix, map[string]int, error) {
	if len(entries) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no corpus entries", ErrSchema)
	}

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Restaurant) == "" {
			return nil, nil, nil, fmt.Errorf("%w: entry %d has empty restaurant name", ErrSchema, i)
		}
		if _, dup := index[e.Restaurant]; dup {
			return nil, nil, nil, fmt.Errorf("%w: duplicate restaurant %q", ErrSchema, e.Restaurant)
		}
		index[e.Restaurant] = i
	}

	n := len(entries)
	minDF := opts.MinDF
	if minDF == 0 {
		minDF = 1
		if n >= 20 {
			minDF = 2
		}
	}
	maxDFRatio := opts.MaxDFRatio
	if maxDFRatio == 0 {
		maxDFRatio = 0.95
	}
	maxDF := maxDFRatio * float64(n)

	// term counts per document and document frequency per term
	docTerms := make([]map[string]int, n)
	df := make(map[string]int)
	for i, e := range entries {
		counts := termCounts(e.Text, opts.Stem)
		docTerms[i] = counts
		for term := range counts {
			df[term]++
		}
	}

	// vocabulary: surviving terms in sorted order, giving deterministic
	// column ids
	terms := make([]string, 0, len(df))
	for term, freq := range df {
		if freq >= minDF && float64(freq) <= maxDF {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for col, term := range terms {
		vocab[term] = col
		idf[col] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	v := &Vectorizer{
		Vocabulary: vocab,
		Terms:      terms,
		IDF:        idf,
		Stem:       opts.Stem,
	}

	// assemble the CSR matrix, one L2-normalized row per document
	m := &Matrix{Rows: n, Cols: len(terms), RowPtr: make([]int, n+1)}
	for i := range entries {
		cols := make([]int, 0, len(docTerms[i]))
		for term := range docTerms[i] {
			if col, ok := vocab[term]; ok {
				cols = append(cols, col)
			}
		}
		sort.Ints(cols)

		var norm float64
		vals := make([]float64, len(cols))
		for j, col := range cols {
			w := float64(docTerms[i][v.Terms[col]]) * idf[col]
			vals[j] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vals {
				vals[j] /= norm
			}
		}

		m.ColIdx = append(m.ColIdx, cols...)
		m.Val = append(m.Val, vals...)
		m.RowPtr[i+1] = len(m.ColIdx)
	}

	slog.Debug("Fitted term-weight index",
		"restaurants", n, "vocabulary", len(terms), "minDF", minDF, "nonzeros", len(m.Val))
	return v, m, index, nil
}

// Transform vectorizes a free-text query against the fitted vocabulary,
// returning a dense L2-normalized weight vector. Out-of-vocabulary terms
// contribute nothing; a query with no known terms yields the zero vector.
func (v *Vectorizer) Transform(query string) []float64 {
	vec := make([]float64, len(v.Terms))

	var norm float64
	for term, count := range termCounts(query, v.Stem) {
		col, ok := v.Vocabulary[term]
		if !ok {
			continue
		}
		w := float64(count) * v.IDF[col]
		vec[col] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// termCounts tokenizes text and counts its unigrams and bigrams.
func termCounts(text string, stem bool) map[string]int {
	tokens := tokenize(text, stem)
	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i+1 < len(tokens) {
			counts[tok+" "+tokens[i+1]]++
		}
	}
	return counts
}

// tokenize lower-cases text, extracts word-character runs of length >= 2,
// and removes stop words. Stemming, when enabled, runs after stop-word
// removal so the stop list matches surface forms.
func tokenize(text string, stem bool) []string {
	raw := tokenRegex.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := englishStopwords[tok]; stop {
			continue
		}
		if stem {
			if stemmed, err := snowball.Stem(tok, "english", false); err == nil && stemmed != "" {
				tok = stemmed
			}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
