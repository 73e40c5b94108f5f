package generation

import "context"

// NullAnswer is the fixed answer emitted by the offline generator.
const NullAnswer = "**In the last 4 months, you attended Mahesh's wedding on 14th December 2024.**"

// NullGenerator returns a fixed canned answer without any network access.
// It backs offline mode and doubles as a test stand-in.
type NullGenerator struct{}

// NewNullGenerator creates an offline answer generator.
func NewNullGenerator() *NullGenerator {
	return &NullGenerator{}
}

// Generate returns the canned answer regardless of input.
func (g *NullGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return NullAnswer, nil
}

// Close is a no-op.
func (g *NullGenerator) Close() error {
	return nil
}
