package translation

import (
	"context"
	"fmt"
	"strings"

	"mangashelf/internal/language"
	"mangashelf/internal/services"
)

const translationPrompt = `You translate text recognized from comic and manga pages.
Translate from %s to %s. Preserve line breaks, keep names untranslated, and
render sound effects naturally. Respond with the translation only, without
quotes, notes, or commentary.`

// TextCompleter is the subset of the LLM client used for translation.
type TextCompleter interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// LLMPreparer prepares chat-model translators. Preparation verifies the
// endpoint answers before the pair is cached.
type LLMPreparer struct {
	client TextCompleter
}

// NewLLMPreparer wraps client.
func NewLLMPreparer(client TextCompleter) *LLMPreparer {
	return &LLMPreparer{client: client}
}

// Prepare implements Preparer.
func (p *LLMPreparer) Prepare(ctx context.Context, pair Pair) (Resource, error) {
	if pair.Source == "" || pair.Target == "" {
		return nil, fmt.Errorf("incomplete language pair %q", pair)
	}
	if err := p.client.HealthCheck(ctx); err != nil {
		return nil, err
	}
	return &llmResource{
		client: p.client,
		system: fmt.Sprintf(translationPrompt, language.DisplayName(pair.Source), language.DisplayName(pair.Target)),
		pair:   pair,
	}, nil
}

type llmResource struct {
	client TextCompleter
	system string
	pair   Pair
}

func (r *llmResource) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	out, err := r.client.CompleteText(ctx, r.system, text)
	if err != nil {
		return "", services.Wrap(services.ErrTranslation, "translation", "translate",
			fmt.Sprintf("translation %s failed", r.pair), err)
	}
	return strings.TrimSpace(out), nil
}
