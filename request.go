package recode

import (
	"fmt"
	"strings"
)

// RewriteRequest pairs source code with a natural-language change instruction.
type RewriteRequest struct {
	Instruction string
	Code        string
}

// Validate checks that both fields are non-empty after trimming whitespace.
func (r RewriteRequest) Validate() error {
	if strings.TrimSpace(r.Instruction) == "" {
		return fmt.Errorf("instruction is empty: %w", ErrCallerContract)
	}
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("source code is empty: %w", ErrCallerContract)
	}
	return nil
}

// Prompt returns the single rewrite prompt sent to the provider.
func (r RewriteRequest) Prompt() string {
	return BuildPrompt(r.Instruction, r.Code)
}

// Result is the outcome of a rewrite call. Attempts counts dispatches to the
// provider made by this call and is set on failure as well.
type Result struct {
	Code     string
	Attempts int
}
