package recode

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values.
type Theme struct {
	Title   int // Pane titles
	Error   int // Error messages
	Success int // Saved and done indicators
	Muted   int // Status bar, placeholders
	Accent  int // Key hints in the status line
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Title:   4,
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
	}
}
