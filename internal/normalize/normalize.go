// Package normalize cleans raw review records into typed reviews.
//
// Cleaning is lossy by design: URLs and control characters are stripped
// from review text, and per-field parse failures (ratings, timestamps,
// reviewer metadata) degrade to absent values instead of errors, so one
// malformed row never aborts a batch. Rows whose restaurant name or review
// text is empty after cleaning are dropped entirely.
package normalize

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/forkcast/forkcast/internal/ingest"
)

var (
	urlRE          = regexp.MustCompile(`http\S+|www\.\S+`)
	nonPrintableRE = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
	whitespaceRE   = regexp.MustCompile(`\s+`)

	// metadata strings look like "3 Reviews , 12 Followers"; either count
	// may be missing
	metaReviewsRE   = regexp.MustCompile(`(?i)(\d+)\s*Review`)
	metaFollowersRE = regexp.MustCompile(`(?i)(\d+)\s*Follower`)
)

// Review is one cleaned customer review. Pointer fields are nil when the
// source value was missing or unparseable.
type Review struct {
	Restaurant string
	Reviewer   string
	Text       string
	Rating     *float64
	Time       *time.Time

	// derived from the reviewer metadata string
	ReviewerTotalReviews *int
	ReviewerFollowers    *int

	Pictures *int
}

// CleanText trims s, removes URL tokens, replaces non-printable characters
// with a space, and collapses whitespace runs to a single space.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	s = urlRE.ReplaceAllString(s, "")
	s = nonPrintableRE.ReplaceAllString(s, " ")
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseMetadata extracts (total reviews, followers) from a reviewer
// metadata string such as "1 Review , 2 Followers". Either count may be
// absent; an empty or unparseable string yields (nil, nil). Never errors.
func ParseMetadata(meta string) (reviews, followers *int) {
	if m := metaReviewsRE.FindStringSubmatch(meta); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			reviews = &n
		}
	}
	if m := metaFollowersRE.FindStringSubmatch(meta); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			followers = &n
		}
	}
	return reviews, followers
}

// ParseRating coerces a rating cell to a float, nil when invalid.
func ParseRating(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseTime parses a timestamp cell leniently, accepting the many date
// layouts that show up in scraped review data. Returns nil when the cell
// is empty or unparseable.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}

// ParseCount coerces an optional integer cell (e.g. picture counts),
// nil when invalid.
func ParseCount(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// tolerate floats like "2.0" from spreadsheet exports
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}

// Reviews cleans a batch of raw records. Rows with an empty restaurant
// name or empty review text after cleaning are dropped.
func Reviews(records []ingest.Record) []Review {
	reviews := make([]Review, 0, len(records))
	dropped := 0

	for _, rec := range records {
		restaurant := strings.TrimSpace(rec.Restaurant)
		text := CleanText(rec.Review)
		if restaurant == "" || text == "" {
			dropped++
			continue
		}

		totalReviews, followers := ParseMetadata(rec.Metadata)
		reviews = append(reviews, Review{
			Restaurant:           restaurant,
			Reviewer:             strings.TrimSpace(rec.Reviewer),
			Text:                 text,
			Rating:               ParseRating(rec.Rating),
			Time:                 ParseTime(rec.Time),
			ReviewerTotalReviews: totalReviews,
			ReviewerFollowers:    followers,
			Pictures:             ParseCount(rec.Pictures),
		})
	}

	slog.Debug("Normalized reviews", "kept", len(reviews), "dropped", dropped)
	return reviews
}
