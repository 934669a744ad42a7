package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/liferpg/internal/types"
)

// Field limits for user input.
const (
	MaxTitleLength    = 200
	MaxCategoryLength = 64
	MaxQuestXP        = 1_000_000
	MaxPINLength      = 64
	MaxIDLength       = 64
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Join folds errs into one error for callers without a field-level channel.
// Returns nil for an empty slice.
func Join(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max int) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}

// ValidateID returns an error unless value is a non-empty token of letters,
// digits, '-' and '_'. Built-in quest ids ("q1") and ULIDs both qualify.
func ValidateID(field, value string) *ValidationError {
	if value == "" || len(value) > MaxIDLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be 1 to %d characters", MaxIDLength),
		}
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return &ValidationError{
				Field:   field,
				Message: "must contain only letters, digits, '-' or '_'",
			}
		}
	}
	return nil
}

// validateText runs the checks shared by every free-text field.
func validateText(c *Collector, field, value string, max int) {
	c.Add(ValidateUTF8(field, value))
	c.Add(ValidateNoNullBytes(field, value))
	c.Add(ValidateMaxLength(field, value, max))
}

// ValidateNewQuest checks a quest creation request.
func ValidateNewQuest(q types.NewQuest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("title", q.Title))
	validateText(&c, "title", q.Title, MaxTitleLength)
	validateText(&c, "category", q.Category, MaxCategoryLength)
	c.Add(ValidateRange("xp", q.XP, 0, MaxQuestXP))
	return c.Errors()
}

// ValidateQuestPatch checks the fields present in an edit.
func ValidateQuestPatch(p types.QuestPatch) []ValidationError {
	var c Collector
	if p.Empty() {
		c.Add(&ValidationError{Field: "body", Message: "must set at least one field"})
	}
	if p.Title != nil {
		c.Add(ValidateRequired("title", *p.Title))
		validateText(&c, "title", *p.Title, MaxTitleLength)
	}
	if p.Category != nil {
		validateText(&c, "category", *p.Category, MaxCategoryLength)
	}
	if p.XP != nil {
		c.Add(ValidateRange("xp", *p.XP, 0, MaxQuestXP))
	}
	return c.Errors()
}

// ValidateBonus checks a manual achievement request.
func ValidateBonus(title string, xp int) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("title", title))
	validateText(&c, "title", title, MaxTitleLength)
	c.Add(ValidateRange("xp", xp, 0, MaxQuestXP))
	return c.Errors()
}

// ValidatePIN checks the shape of a PIN. Whether it is correct is decided
// by the gate.
func ValidatePIN(field, value string) []ValidationError {
	var c Collector
	c.Add(ValidateRequired(field, value))
	validateText(&c, field, value, MaxPINLength)
	return c.Errors()
}
