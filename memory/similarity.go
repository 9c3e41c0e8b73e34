package memory

import (
	"math"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|) in [-1, 1]. It is 0 when
// either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}

	sim := floats.Dot(a, b) / (na * nb)

	// clamp rounding noise
	switch {
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

// IsFinite reports whether v holds neither NaN nor infinite components.
func IsFinite(v []float64) bool {
	if floats.HasNaN(v) {
		return false
	}
	for _, x := range v {
		if math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// TextRelevance scores text against query in [0, 1] without embeddings. A
// case-insensitive occurrence of the whole query scores 1. Otherwise the
// score is the fraction of distinct query terms present among the text's
// terms. An empty query scores 0.
func TextRelevance(query, text string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	t := strings.ToLower(text)
	if strings.Contains(t, q) {
		return 1
	}

	queryTerms := lo.Uniq(tokenize(q))
	if len(queryTerms) == 0 {
		return 0
	}

	textTerms := lo.SliceToMap(tokenize(t), func(s string) (string, struct{}) { return s, struct{}{} })

	hits := lo.CountBy(queryTerms, func(term string) bool {
		_, ok := textTerms[term]
		return ok
	})

	return float64(hits) / float64(len(queryTerms))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
