// Package analyze builds document-type-specific prompts and drives the
// external completion capability. The adapter never decides entitlement;
// the caller passes it in and gets used=false back when AI is off.
package analyze

import (
	"context"

	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/ports"
)

const (
	DefaultMaxInputChars   = 6000
	DefaultMaxOutputTokens = 1500
)

type Adapter struct {
	completion      ports.CompletionClient
	maxInputChars   int
	maxOutputTokens int
}

func NewAdapter(completion ports.CompletionClient, maxInputChars, maxOutputTokens int) *Adapter {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = DefaultMaxOutputTokens
	}
	return &Adapter{
		completion:      completion,
		maxInputChars:   maxInputChars,
		maxOutputTokens: maxOutputTokens,
	}
}

// Analyze sends the document through the completion capability and returns
// the raw answer. used=false with a nil error means the caller is not
// entitled to AI analysis; transport failures come back as ErrAIUnavailable.
func (a *Adapter) Analyze(ctx context.Context, text string, docType domain.DocumentType, entitled bool) (string, bool, error) {
	if !entitled {
		return "", false, nil
	}

	system, user := buildAnalysisPrompt(truncate(text, a.maxInputChars), docType)
	raw, err := a.completion.Complete(ctx, system, user, a.maxOutputTokens)
	if err != nil {
		return "", false, domain.WrapError(domain.ErrAIUnavailable, "analyze document", err)
	}
	return raw, true, nil
}

// AnnotateChanges asks the model to rate a bounded slice of a change set.
func (a *Adapter) AnnotateChanges(ctx context.Context, changes []domain.Change, entitled bool) (string, bool, error) {
	if !entitled {
		return "", false, nil
	}

	system, user := buildAnnotationPrompt(changes)
	raw, err := a.completion.Complete(ctx, system, user, a.maxOutputTokens)
	if err != nil {
		return "", false, domain.WrapError(domain.ErrAIUnavailable, "annotate changes", err)
	}
	return raw, true, nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
