package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/recode"
	bt "github.com/fwojciec/recode/bubbletea"
	"github.com/mattn/go-runewidth"
)

// smokePrompts is the fixed prompt set sent by -smoke.
var smokePrompts = []string{
	"Write a simple hello world program in Python.",
	"What is the capital of France?",
	"Explain quantum computing in one sentence.",
}

const (
	smokeDetailWidth = 48
	smokeDelay       = time.Second // pause between prompts to stay under rate limits
)

type smokeResult struct {
	Prompt  string
	Text    string
	Err     error
	Latency time.Duration
}

// runSmoke sends each prompt to the provider once, bypassing the gateway's
// retry loop so every row reflects a single round trip. Prompts go through
// Provider.Generate, so adapters that send a system turn (OpenAI) include the
// code-assistant instruction rather than a bare user message. Consecutive
// prompts are separated by delay.
func runSmoke(ctx context.Context, p recode.Provider, prompts []string, delay time.Duration) []smokeResult {
	results := make([]smokeResult, 0, len(prompts))
	for i, prompt := range prompts {
		if i > 0 && delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
		if ctx.Err() != nil {
			results = append(results, smokeResult{Prompt: prompt, Err: ctx.Err()})
			continue
		}
		start := time.Now()
		text, err := p.Generate(ctx, prompt)
		results = append(results, smokeResult{
			Prompt:  prompt,
			Text:    text,
			Err:     err,
			Latency: time.Since(start),
		})
	}
	return results
}

// reportSmoke renders results as a table and returns an error if any prompt
// failed.
func reportSmoke(w io.Writer, provider string, results []smokeResult) error {
	rows := make([][]string, 0, len(results))
	failed := 0
	for i, r := range results {
		status, detail := "ok", r.Text
		if r.Err != nil {
			failed++
			status, detail = "error", r.Err.Error()
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			runewidth.Truncate(r.Prompt, smokeDetailWidth, "…"),
			status,
			fmt.Sprintf("%dms", r.Latency.Milliseconds()),
			runewidth.Truncate(firstLine(bt.Sanitize(detail)), smokeDetailWidth, "…"),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "PROMPT", "STATUS", "LATENCY", "RESPONSE").
		Rows(rows...)
	fmt.Fprintf(w, "Provider: %s\n", provider)
	fmt.Fprintln(w, t.Render())

	if failed > 0 {
		return fmt.Errorf("smoke test: %d of %d prompts failed", failed, len(results))
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
