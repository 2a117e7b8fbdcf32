// Package lang implements the heuristic English / Roman Urdu classifiers.
//
// Two independent heuristics exist on purpose: Detect is the broad
// classifier used for reporting the detected language back to callers,
// while IsRomanUrdu is a stricter gate that decides whether the Roman
// Urdu response path is taken. They use different word lists and
// thresholds and must stay separately testable.
package lang

import (
	"regexp"
	"strings"
)

// Language is the classifier outcome.
type Language string

const (
	English   Language = "english"
	RomanUrdu Language = "roman_urdu"
)

// detectIndicators are common Roman Urdu words used by Detect.
var detectIndicators = map[string]struct{}{
	"aap": {}, "hai": {}, "hay": {}, "hain": {}, "kar": {}, "main": {},
	"yeh": {}, "woh": {}, "kya": {}, "kyun": {}, "kab": {}, "kahan": {},
	"kaisa": {}, "kitna": {}, "mera": {}, "tera": {}, "hamara": {},
	"tumhara": {}, "unka": {}, "iska": {}, "uska": {}, "nahi": {},
	"nahin": {}, "bilkul": {}, "bohot": {}, "bahut": {}, "thoda": {},
	"zyada": {}, "paani": {}, "pani": {}, "khana": {}, "ghar": {},
	"kaam": {}, "waqt": {}, "saal": {}, "mahina": {}, "din": {},
	"raat": {}, "subah": {}, "sham": {}, "achha": {}, "bura": {},
	"sundar": {}, "khoobsurat": {}, "mushkil": {}, "aasan": {},
	"shukriya": {}, "maaf": {}, "ji": {}, "han": {}, "haan": {},
}

// routingIndicators is the smaller list used by IsRomanUrdu.
var routingIndicators = map[string]struct{}{
	"kya": {}, "kaise": {}, "tum": {}, "mein": {}, "aap": {}, "mera": {},
	"apna": {}, "hai": {}, "ho": {}, "kar": {}, "ki": {}, "se": {},
	"ko": {}, "ka": {}, "raha": {}, "rahi": {}, "kuch": {}, "nahi": {},
	"haan": {}, "acha": {}, "theek": {}, "batao": {}, "kyun": {},
	"kahan": {}, "kon": {}, "kaun": {}, "par": {}, "aur": {}, "magar": {},
}

var (
	wordPattern      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	asciiWordPattern = regexp.MustCompile(`^[a-zA-Z]+$`)
	englishWord      = regexp.MustCompile(`^[a-z]{3,}$`)
)

// Detect classifies text as English or Roman Urdu. Short messages lean
// toward Roman Urdu; longer ones require repeated indicator hits.
func Detect(text string) Language {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return English
	}

	var indicatorHits, asciiWords int
	for _, tok := range tokens {
		if _, ok := detectIndicators[tok]; ok {
			indicatorHits++
		}
		if asciiWordPattern.MatchString(tok) {
			asciiWords++
		}
	}
	asciiRatio := float64(asciiWords) / float64(len(tokens))

	if len(tokens) <= 6 {
		switch {
		case indicatorHits >= 1:
			return RomanUrdu
		case asciiRatio > 0.6:
			return English
		default:
			return RomanUrdu
		}
	}

	switch {
	case indicatorHits >= 2 && asciiRatio < 0.7:
		return RomanUrdu
	case asciiRatio > 0.7:
		return English
	case indicatorHits >= 2:
		return RomanUrdu
	default:
		return English
	}
}

// IsRomanUrdu gates the Roman Urdu response path. It returns true only
// when at least two indicator words appear and they strictly outnumber
// the plain English-looking words.
func IsRomanUrdu(text string) bool {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)

	var urduCount, englishCount int
	for _, tok := range tokens {
		if _, ok := routingIndicators[tok]; ok {
			urduCount++
		} else if englishWord.MatchString(tok) {
			englishCount++
		}
	}
	return urduCount >= 2 && urduCount > englishCount
}
