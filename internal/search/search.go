// Package search normalizes untrusted materials-listing parameters into a
// validated query value. Invalid input never errors here; everything is
// clamped or defaulted so the listing endpoint stays available no matter
// what a client sends.
package search

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SortMode selects the ordering applied to a materials listing.
type SortMode string

const (
	SortNew       SortMode = "new"
	SortPopular   SortMode = "popular"
	SortRelevance SortMode = "relevance"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	MaxOffset    = 10000

	maxFilterLength = 100
	maxTermLength   = 200
	maxTokens       = 6
)

// Query is the validated, clamped form of a materials listing request.
// Build one with Normalize; treat it as immutable afterwards.
type Query struct {
	// Term is the sanitized full-text query expression. Empty disables
	// text search entirely.
	Term string

	Subject string
	Grade   string
	Type    string

	Limit  int
	Offset int
	Sort   SortMode

	// FavoriteOfUserID restricts results to materials favorited by that
	// user. Zero or negative means no favorites filter.
	FavoriteOfUserID int64

	// AuthorID restricts results to materials created by that user.
	// Zero or negative means no author filter.
	AuthorID int64
}

// Params carries the raw, untrusted request parameters.
type Params struct {
	Term    string
	Subject string
	Grade   string
	Type    string
	Limit   string
	Offset  string
	Sort    string

	FavoriteOfUserID int64
	AuthorID         int64
}

// Normalize converts raw request parameters into a Query. It never fails:
// out-of-range numbers are clamped, unknown sort modes fall back to "new",
// and hostile search input degrades to an empty (disabled) text query.
func Normalize(p Params) Query {
	return Query{
		Term:             SanitizeTerm(p.Term),
		Subject:          truncateRunes(strings.TrimSpace(p.Subject), maxFilterLength),
		Grade:            truncateRunes(strings.TrimSpace(p.Grade), maxFilterLength),
		Type:             truncateRunes(strings.TrimSpace(p.Type), maxFilterLength),
		Limit:            ParseClamped(p.Limit, 1, MaxLimit, DefaultLimit),
		Offset:           ParseClamped(p.Offset, 0, MaxOffset, 0),
		Sort:             ParseSortMode(p.Sort),
		FavoriteOfUserID: p.FavoriteOfUserID,
		AuthorID:         p.AuthorID,
	}
}

// ParseSortMode maps a raw sort parameter onto a SortMode.
// Anything unrecognized resolves to SortNew.
func ParseSortMode(raw string) SortMode {
	switch SortMode(raw) {
	case SortPopular:
		return SortPopular
	case SortRelevance:
		return SortRelevance
	default:
		return SortNew
	}
}

// ParseClamped parses raw as an integer and clamps it into [minVal, maxVal].
// Missing or non-numeric input yields def. Total: never errors.
func ParseClamped(raw string, minVal, maxVal, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Clients send floats sometimes; take the integer part.
		// ParseFloat accepts "NaN" and "Inf" without error, and
		// converting those to int is implementation-defined, so they
		// must fall back to the default before the conversion.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		n = int(f)
	}
	if n < minVal {
		return minVal
	}
	if n > maxVal {
		return maxVal
	}
	return n
}

// SanitizeTerm turns free text into a safe prefix-match expression for the
// full-text index. The input is truncated, canonically composed (NFC),
// stripped of control characters and anything that is not a letter, digit,
// underscore, or hyphen, then capped at six tokens with a trailing wildcard
// each. Returns "" when nothing usable survives.
func SanitizeTerm(raw string) string {
	raw = truncateRunes(raw, maxTermLength)
	raw = norm.NFC.String(raw)
	raw = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)

	var tokens []string
	for _, field := range strings.Fields(raw) {
		token := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
				return r
			}
			return -1
		}, field)
		if token == "" {
			continue
		}
		tokens = append(tokens, token+"*")
		if len(tokens) == maxTokens {
			break
		}
	}

	return strings.Join(tokens, " ")
}

// truncateRunes cuts s after n runes. Byte-based slicing would split
// multibyte characters and corrupt the index query.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
