// Package assistant produces marketing copy and shopper answers from a
// text generation model. Its methods never fail: when the model is not
// configured or errors, a fixed placeholder is returned instead.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"storefront/internal/models"
)

const (
	DescriptionUnavailable = "Automatic description (API key not configured)."
	DescriptionEmpty       = "Unable to generate a description right now."
	DescriptionFailed      = "An error occurred while generating the description."

	AnswerUnavailable = "The smart assistant service is unavailable."
	AnswerEmpty       = "Sorry, I did not understand the question."
	AnswerFailed      = "An error occurred while contacting the smart assistant."
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Assistant struct {
	gen   Generator
	fence *Fence
}

// New returns an Assistant backed by gen. A nil gen is allowed and makes
// every call return the "unavailable" placeholder.
func New(gen Generator) *Assistant {
	return &Assistant{gen: gen, fence: NewFence()}
}

func (a *Assistant) DescribeProduct(ctx context.Context, name string, category models.Category) string {
	if a.gen == nil {
		return DescriptionUnavailable
	}

	prompt := fmt.Sprintf(`Write an attractive, concise marketing description (about 50 words) for a product.
Product name: %s
Category: %s
Currency: Moroccan dirham.
Style: professional and persuasive for Moroccan shoppers.`, name, category)

	return a.generate(ctx, prompt, DescriptionEmpty, DescriptionFailed)
}

// Ask answers a shopper question about the product described by
// productContext. A blank question yields an empty answer without calling
// the model.
func (a *Assistant) Ask(ctx context.Context, question, productContext string) string {
	if strings.TrimSpace(question) == "" {
		return ""
	}
	if a.gen == nil {
		return AnswerUnavailable
	}

	prompt := fmt.Sprintf(`You are a helpful assistant in a Moroccan online store.
Current product context: %s
Customer question: %s
Answer politely and briefly.`, productContext, question)

	return a.generate(ctx, prompt, AnswerEmpty, AnswerFailed)
}

// AskFenced is Ask for one input field. current is false when another
// question was issued for the same field after this one; the caller must
// discard a non-current answer.
func (a *Assistant) AskFenced(ctx context.Context, field, question, productContext string) (answer string, current bool) {
	seq := a.fence.Next(field)
	answer = a.Ask(ctx, question, productContext)
	return answer, a.fence.IsLatest(field, seq)
}

func (a *Assistant) generate(ctx context.Context, prompt, empty, failed string) string {
	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		slog.WarnContext(ctx, "text generation failed", "error", err)
		return failed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return empty
	}
	return text
}

func ProductContext(p models.Product) string {
	return fmt.Sprintf("Product: %s, Price: %s MAD, Description: %s",
		p.Name, strconv.FormatFloat(p.Price, 'f', -1, 64), p.Description)
}
