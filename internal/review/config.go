package review

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mneme/internal/cards"
	"github.com/starford/mneme/internal/scheduler"
)

// Config controls how notes are turned into decks and how reviews are written back.
type Config struct {
	Parser    cards.ParserOptions `yaml:"parser"`
	Scheduler scheduler.Config    `yaml:"scheduler"`
	// FlashcardTags select the notes and questions whose cards are filed into decks.
	FlashcardTags []string `yaml:"flashcard_tags"`
	// ReviewTags select the notes offered for whole-note review.
	ReviewTags []string `yaml:"review_tags"`
	// ConvertFoldersToDecks files cards by note folder instead of by tag.
	ConvertFoldersToDecks bool `yaml:"convert_folders_to_decks"`
	BurySiblings          bool `yaml:"bury_siblings"`
	CommentOnSameLine     bool `yaml:"comment_on_same_line"`
}

// DefaultConfig returns the stock review settings.
func DefaultConfig() Config {
	return Config{
		Parser:        cards.DefaultParserOptions(),
		Scheduler:     scheduler.DefaultConfig(),
		FlashcardTags: []string{"#flashcards"},
		ReviewTags:    []string{"#review"},
	}
}

// Validate validates the review settings.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.FlashcardTags, validation.Required),
		validation.Field(&c.ReviewTags, validation.Required),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Parser,
		validation.Field(&c.Parser.SingleLine, validation.Required),
		validation.Field(&c.Parser.SingleLineReversed, validation.Required),
		validation.Field(&c.Parser.MultiLine, validation.Required),
		validation.Field(&c.Parser.MultiLineReversed, validation.Required),
	); err != nil {
		return err
	}
	return c.Scheduler.Validate()
}
