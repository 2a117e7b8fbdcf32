package bot

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fikrfree/assistant/internal/llm"
	"github.com/fikrfree/assistant/internal/retrieval"
	"github.com/fikrfree/assistant/pkg/catalog"
	"github.com/fikrfree/assistant/pkg/lang"
	"github.com/fikrfree/assistant/pkg/observability"
)

// Strategy names the response path a message was routed to.
type Strategy string

const (
	StrategyExact       Strategy = "exact_match"
	StrategyShortlist   Strategy = "shortlist"
	StrategyEmergency   Strategy = "emergency"
	StrategyAlternative Strategy = "alternative"
	StrategyRetrieval   Strategy = "retrieval"
	StrategySafety      Strategy = "safety_declined"
)

// simulatedChunkSize paces deterministic responses through the same
// streaming contract the generator uses.
const simulatedChunkSize = 48

type routed struct {
	strategy Strategy
	stream   llm.Stream
}

// failOpen runs one routing step, swallowing panics so a broken step
// falls through to the next priority instead of reaching the user.
func (a *Assistant) failOpen(step string, fn func() (llm.Stream, bool)) (stream llm.Stream, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn().Interface("panic", r).Str("step", step).
				Msg("routing step failed, trying next priority")
			stream, ok = nil, false
		}
	}()
	return fn()
}

// route dispatches a message to the first matching strategy. Steps 1-4
// fail open: any error there falls through to the next priority. Only
// the retrieval+generation fallback propagates errors.
func (a *Assistant) route(ctx context.Context, text string, memory []llm.Message) (routed, error) {
	ctx, span := observability.StartSpan(ctx, "bot.route",
		trace.WithAttributes(attribute.Bool("query.roman_urdu", lang.IsRomanUrdu(text))),
	)
	defer span.End()

	result, err := a.dispatch(ctx, text, memory)
	if err == nil {
		span.SetAttributes(attribute.String("route.strategy", string(result.strategy)))
	}
	return result, err
}

func (a *Assistant) dispatch(ctx context.Context, text string, memory []llm.Message) (routed, error) {
	idx := a.catalog.Index()

	if stream, ok := a.failOpen("alternative", func() (llm.Stream, bool) {
		return a.tryAlternative(idx, text)
	}); ok {
		return routed{StrategyAlternative, stream}, nil
	}
	if stream, ok := a.failOpen("exact", func() (llm.Stream, bool) {
		return a.tryExact(idx, text)
	}); ok {
		return routed{StrategyExact, stream}, nil
	}
	if stream, ok := a.failOpen("emergency", func() (llm.Stream, bool) {
		if !isEmergency(text) {
			return nil, false
		}
		return llm.NewSimulatedStream(emergencyResponse, "stop", simulatedChunkSize), true
	}); ok {
		return routed{StrategyEmergency, stream}, nil
	}
	if stream, ok := a.failOpen("shortlist", func() (llm.Stream, bool) {
		return a.tryShortlist(idx, text)
	}); ok {
		return routed{StrategyShortlist, stream}, nil
	}

	stream, err := a.retrieveAndGenerate(ctx, text, memory)
	if err != nil {
		return routed{}, err
	}
	return routed{StrategyRetrieval, stream}, nil
}

// tryAlternative handles the structured "suggest alternative" trigger.
func (a *Assistant) tryAlternative(idx *catalog.Index, text string) (llm.Stream, bool) {
	product, variant, ok := parseAlternativeTrigger(text)
	if !ok {
		return nil, false
	}

	alt, found := idx.SuggestAlternative(product, variant)
	var response string
	if found {
		original := product + " (" + titleCaser.String(variant) + ")"
		response = formatAlternative(original, alt)
	} else {
		response = noAlternativeFound
	}
	return llm.NewSimulatedStream(response, "stop", simulatedChunkSize), true
}

// tryExact fires when both a variant keyword and a fuzzy product match
// are present and the pair resolves to a catalog row.
func (a *Assistant) tryExact(idx *catalog.Index, text string) (llm.Stream, bool) {
	variant, ok := catalog.ExtractVariant(text)
	if !ok {
		return nil, false
	}
	product, ok := idx.BestProductMatch(text)
	if !ok {
		return nil, false
	}
	row, ok := idx.Lookup(product, string(variant))
	if !ok {
		return nil, false
	}
	return llm.NewSimulatedStream(formatRow(row), "stop", simulatedChunkSize), true
}

// tryShortlist handles recommendation and budget queries.
func (a *Assistant) tryShortlist(idx *catalog.Index, text string) (llm.Stream, bool) {
	if !wantsShortlist(text) {
		return nil, false
	}

	var budget *float64
	if b, ok := parseBudget(text); ok {
		budget = &b
	}

	rows := a.shortlistRows(idx, text, budget)
	if len(rows) == 0 {
		return nil, false
	}
	return llm.NewSimulatedStream(formatShortlist(rows, budget), "stop", simulatedChunkSize), true
}

// shortlistRows restricts ranking to explicitly compared products when
// possible, falling back to the whole catalog so a priced catalog never
// yields an empty shortlist.
func (a *Assistant) shortlistRows(idx *catalog.Index, text string, budget *float64) []*catalog.Row {
	const maxItems = 5

	if names, ok := parseCompareTrigger(text); ok {
		wanted := make(map[string]struct{})
		for _, name := range names {
			if match, ok := idx.BestProductMatch(name); ok {
				wanted[match] = struct{}{}
			}
		}
		if len(wanted) > 0 {
			var rows []*catalog.Row
			for _, row := range idx.Candidates(budget, 0) {
				if _, ok := wanted[catalog.Normalize(row.ProductName)]; ok {
					rows = append(rows, row)
				}
			}
			if len(rows) > maxItems {
				rows = rows[:maxItems]
			}
			if len(rows) > 0 {
				return rows
			}
		}
	}
	return idx.Candidates(budget, maxItems)
}

// retrieveAndGenerate is the open-ended fallback: retrieve top-k
// passages (translating Roman Urdu queries first) and stream a grounded
// generation, or a fixed apology when nothing was found.
func (a *Assistant) retrieveAndGenerate(ctx context.Context, text string, memory []llm.Message) (llm.Stream, error) {
	romanUrdu := lang.IsRomanUrdu(text)

	query := text
	if romanUrdu {
		translated, err := a.translator.ToEnglish(ctx, text)
		if err != nil {
			return nil, collaboratorErr("translate", err)
		}
		query = translated
	}

	nodes, err := a.retriever.Retrieve(ctx, query, a.topK)
	if err != nil {
		return nil, collaboratorErr("retrieve", err)
	}

	if emptyNodes(nodes) {
		apology := apologyEnglish
		if romanUrdu {
			apology = apologyRomanUrdu
		}
		return llm.NewSimulatedStream(apology, "stop", simulatedChunkSize), nil
	}

	systemPrompt := englishSystemPrompt
	if romanUrdu {
		systemPrompt = romanUrduSystemPrompt
	}

	messages := []llm.Message{{Role: "system", Content: systemPrompt}}
	messages = append(messages, llm.Message{Role: "system", Content: renderContext(nodes)})
	messages = append(messages, memory...)
	messages = append(messages, llm.Message{Role: "user", Content: text})

	genCtx, span := observability.StartSpan(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.Int("prompt.messages", len(messages)),
			attribute.Bool("prompt.roman_urdu", romanUrdu),
		),
	)
	stream, err := a.generator.CompleteStream(genCtx, llm.CompletionRequest{Messages: messages})
	span.End()
	if err != nil {
		return nil, collaboratorErr("generate", err)
	}
	return withTail(stream, retrievalTail(nodes)), nil
}

// emptyNodes reports whether retrieval produced no usable passages.
func emptyNodes(nodes []retrieval.Node) bool {
	for _, node := range nodes {
		if strings.TrimSpace(node.Content) != "" {
			return false
		}
	}
	return true
}
