package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	toEnglishPrompt = "You are a translator. Translate the user's Roman Urdu " +
		"message to plain English. Reply with the translation only, no commentary."
	toRomanUrduPrompt = "You are a translator. Translate the user's English " +
		"message to Roman Urdu written with the letters A-Z only. Reply with " +
		"the translation only, no commentary."
)

// Translator runs constrained generator calls for translation: Roman Urdu
// queries become English before retrieval, and the translate endpoint
// converts either direction.
type Translator struct {
	gen Generator
}

// NewTranslator wraps a generator for translation calls.
func NewTranslator(gen Generator) *Translator {
	return &Translator{gen: gen}
}

// ToEnglish translates text to English.
func (t *Translator) ToEnglish(ctx context.Context, text string) (string, error) {
	return t.translate(ctx, toEnglishPrompt, text)
}

// ToRomanUrdu translates text to Roman Urdu.
func (t *Translator) ToRomanUrdu(ctx context.Context, text string) (string, error) {
	return t.translate(ctx, toRomanUrduPrompt, text)
}

func (t *Translator) translate(ctx context.Context, system, text string) (string, error) {
	resp, err := t.gen.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		MaxTokens:   256,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", fmt.Errorf("translate: empty result")
	}
	return out, nil
}
