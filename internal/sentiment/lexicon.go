package sentiment

import (
	"strings"
	"unicode"
)

var positiveWords = map[string]struct{}{
	"bullish": {}, "positive": {}, "growth": {}, "strong": {}, "buy": {}, "up": {},
	"rise": {}, "gain": {}, "profit": {}, "good": {}, "excellent": {}, "optimistic": {},
}

var negativeWords = map[string]struct{}{
	"bearish": {}, "negative": {}, "decline": {}, "weak": {}, "sell": {}, "down": {},
	"fall": {}, "loss": {}, "bad": {}, "poor": {}, "pessimistic": {},
}

// TextScore is the lexicon polarity of a piece of text.
type TextScore struct {
	Score      float64
	Confidence float64
	Keywords   []string
}

// AnalyzeText scores text by counting positive and negative keyword hits.
// Tokens are split on whitespace, lower-cased and stripped of surrounding
// punctuation. The score is 100*(pos-neg)/(pos+neg), or 0 without hits.
func AnalyzeText(text string) TextScore {
	var pos, neg int
	var keywords []string
	seen := make(map[string]bool)

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.TrimFunc(tok, unicode.IsPunct)
		_, isPos := positiveWords[tok]
		_, isNeg := negativeWords[tok]
		switch {
		case isPos:
			pos++
		case isNeg:
			neg++
		default:
			continue
		}
		if !seen[tok] {
			seen[tok] = true
			keywords = append(keywords, tok)
		}
	}

	hits := pos + neg
	if hits == 0 {
		return TextScore{Confidence: 30}
	}
	return TextScore{
		Score:      100 * float64(pos-neg) / float64(hits),
		Confidence: min(90, 40+float64(hits)*10),
		Keywords:   keywords,
	}
}
