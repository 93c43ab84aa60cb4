package questiongen

import "time"

// Config controls the behavior of the Service.
type Config struct {
	// Validators run in order on every draft; the first failure skips it.
	Validators []Validator

	// MaxTokens is the token budget for the model reply.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0). Not sent to
	// reasoning models.
	Temperature float64

	// Timeout bounds the single transport call. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration

	// Structured asks the provider for schema-constrained output.
	Structured bool

	// ReasoningModelPrefixes select the step-by-step prompt for model IDs
	// starting with any of them.
	ReasoningModelPrefixes []string

	// Placeholder replaces document text that could not be loaded.
	Placeholder string
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
		},
		MaxTokens:              4000,
		Temperature:            0.7,
		Timeout:                2 * time.Minute,
		ReasoningModelPrefixes: []string{"o1", "o3", "o4"},
		Placeholder:            DefaultPlaceholder,
	}
}
