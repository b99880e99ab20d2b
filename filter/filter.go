// Package filter screens user-supplied text against a profanity
// block-list. The base dictionary comes from go-away; deployments add
// words that must always block and allow words that must never block.
package filter

import (
	"slices"

	goaway "github.com/TwiN/go-away"
)

// Config adjusts the base dictionary at initialization.
type Config struct {
	// Block are extra words that always count as inappropriate.
	Block []string
	// Allow are words excluded from the base dictionary, including
	// words the substring matcher would otherwise flag.
	Allow []string
}

// Filter checks free-text fields for blocked content.
type Filter struct {
	detector *goaway.ProfanityDetector
}

// New builds a Filter from the base dictionary and cfg overrides.
func New(cfg Config) *Filter {
	profanities := slices.Clone(goaway.DefaultProfanities)
	profanities = slices.DeleteFunc(profanities, func(w string) bool {
		return slices.Contains(cfg.Allow, w)
	})
	profanities = append(profanities, cfg.Block...)

	falsePositives := slices.Clone(goaway.DefaultFalsePositives)
	falsePositives = append(falsePositives, cfg.Allow...)

	falseNegatives := slices.Clone(goaway.DefaultFalseNegatives)

	return &Filter{
		detector: goaway.NewProfanityDetector().
			WithCustomDictionary(profanities, falsePositives, falseNegatives),
	}
}

// Default returns the filter with the deployment's stock overrides.
func Default() *Filter {
	return New(Config{
		Block: []string{"automodmute"},
		Allow: []string{"dang", "damn", "hell", "crap", "lmao", "button", "buttons"},
	})
}

// Check reports whether text contains blocked content.
func (f *Filter) Check(text string) bool {
	return f.detector.IsProfane(text)
}
