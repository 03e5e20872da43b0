package translate

import (
	"context"

	"tutoring-controlplane/pkg/config"

	"go.uber.org/fx"
)

// Translator translates teacher-facing text for parents. Implementations are
// expected to be slow and unreliable; callers treat failures as soft errors
// and keep the untranslated source text.
type Translator interface {
	// IsConfigured reports whether the provider has credentials. When false,
	// Translate is never called and records are persisted untranslated.
	IsConfigured() bool

	// Translate returns text rendered in targetLang.
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

var Module = fx.Module("translate",
	fx.Provide(NewChatModelTranslator),
)

func NewChatModelTranslator(cfg *config.Config) Translator {
	return newChatClient(cfg)
}
