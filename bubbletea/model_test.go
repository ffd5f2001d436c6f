package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/recode"
	bt "github.com/fwojciec/recode/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, run bt.RewriteFunc, code string, config bt.Config) bt.Model {
	t.Helper()
	m := bt.New(run, code, recode.DefaultTheme(), config)
	return updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func typeText(t *testing.T, m bt.Model, text string) bt.Model {
	t.Helper()
	return updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func echoRewrite(_ context.Context, instruction, code string) (string, error) {
	return code + "# " + instruction + "\n", nil
}

func TestModel_InitialView(t *testing.T) {
	t.Parallel()

	m := bt.New(echoRewrite, "x = 1\n", recode.DefaultTheme(), bt.Config{})
	assert.Equal(t, "Initializing...", m.View())

	m = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	view := m.View()
	assert.Contains(t, view, "x = 1")
	assert.Contains(t, view, "(untitled)")
	assert.Contains(t, view, "Ctrl+R")
	assert.Contains(t, view, "rewrite")
	assert.Contains(t, view, "Ctrl+S")
}

func TestModel_TitleShowsSourceAndProvider(t *testing.T) {
	t.Parallel()
	m := initModel(t, echoRewrite, "x = 1\n", bt.Config{SourcePath: "main.py", Provider: "gemini"})
	assert.Contains(t, m.View(), "recode · main.py · gemini")
}

func TestModel_SubmitRejectsEmptyInstruction(t *testing.T) {
	t.Parallel()

	called := false
	run := func(context.Context, string, string) (string, error) {
		called = true
		return "", nil
	}
	m := initModel(t, run, "x = 1\n", bt.Config{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(bt.Model)
	assert.Nil(t, cmd)
	assert.False(t, m.Running())
	require.Error(t, m.Err())
	assert.Contains(t, m.Err().Error(), "instruction is empty")
	assert.False(t, called)
}

func TestModel_SubmitRejectsMissingCode(t *testing.T) {
	t.Parallel()

	m := initModel(t, echoRewrite, "", bt.Config{})
	m = typeText(t, m, "add docstring")
	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Error(t, m.Err())
	assert.Contains(t, m.Err().Error(), "no code loaded")
	assert.False(t, m.Running())
}

func TestModel_SubmitStartsRewrite(t *testing.T) {
	t.Parallel()

	m := initModel(t, echoRewrite, "x = 1\n", bt.Config{Provider: "openai"})
	m = typeText(t, m, "add comment")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(bt.Model)
	assert.True(t, m.Running())
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Rewriting with openai")

	// Keys other than control keys are ignored while running.
	m = typeText(t, m, "zzz")
	assert.NotContains(t, m.Input.Value(), "zzz")
}

func TestModel_RewriteDone(t *testing.T) {
	t.Parallel()

	t.Run("success replaces code", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{})
		m = typeText(t, m, "change")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

		m = updateModel(t, m, bt.RewriteDoneMsg{Code: "x = 2\n"})
		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
		assert.Equal(t, "x = 2\n", m.Code())
		assert.Equal(t, 1, m.Rewrites())
		assert.Empty(t, m.Input.Value())
		assert.Contains(t, m.View(), "Rewrite applied")
	})

	t.Run("error keeps code and instruction", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{})
		m = typeText(t, m, "change")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

		m = updateModel(t, m, bt.RewriteDoneMsg{Err: errors.New("backend error after 4 attempt(s): boom")})
		assert.False(t, m.Running())
		require.Error(t, m.Err())
		assert.Equal(t, "x = 1\n", m.Code())
		assert.Equal(t, "change", m.Input.Value())
		assert.Contains(t, m.View(), "Error: backend error")
	})

	t.Run("cancellation is not an error", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{})
		m = typeText(t, m, "change")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

		m = updateModel(t, m, bt.RewriteDoneMsg{Err: context.Canceled})
		assert.NoError(t, m.Err())
		assert.Contains(t, m.View(), "Rewrite cancelled")
	})

	t.Run("unfence strips a wrapping fence", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{Unfence: true})
		m = typeText(t, m, "change")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

		m = updateModel(t, m, bt.RewriteDoneMsg{Code: "```python\nx = 2\n```\n"})
		assert.Equal(t, "x = 2\n", m.Code())
		assert.Contains(t, m.View(), "unwrapped python fence")
	})

	t.Run("unfence without fence keeps plain notice", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{Unfence: true})
		m = updateModel(t, m, bt.RewriteDoneMsg{Code: "x = 2\n"})
		assert.Equal(t, "x = 2\n", m.Code())
		assert.Contains(t, m.View(), "Rewrite applied")
		assert.NotContains(t, m.View(), "unwrapped")
	})

	t.Run("fence kept without unfence", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{})
		m = updateModel(t, m, bt.RewriteDoneMsg{Code: "```\nx = 2\n```\n"})
		assert.Equal(t, "```\nx = 2\n```\n", m.Code())
	})
}

func TestModel_CtrlCCancelsRunningRewrite(t *testing.T) {
	t.Parallel()

	m := initModel(t, echoRewrite, "x = 1\n", bt.Config{})
	m = typeText(t, m, "change")
	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, m.Running())

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(bt.Model)
	assert.Nil(t, cmd, "ctrl+c while running cancels instead of quitting")
	assert.True(t, m.Running())
}

func TestModel_Save(t *testing.T) {
	t.Parallel()

	t.Run("writes current code", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out", "main.py")
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{OutputPath: path})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
		require.NotNil(t, cmd)
		msg := cmd()
		saved, ok := msg.(bt.SavedMsg)
		require.True(t, ok)
		require.NoError(t, saved.Err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "x = 1\n", string(data))

		m = updateModel(t, m, saved)
		assert.Contains(t, m.View(), "Saved to")
	})

	t.Run("no output path", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, echoRewrite, "x = 1\n", bt.Config{})
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
		require.NotNil(t, cmd)
		m = updateModel(t, m, cmd())
		require.Error(t, m.Err())
		assert.Contains(t, m.Err().Error(), "no output path")
	})
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("full rewrite cycle", func(t *testing.T) {
		t.Parallel()

		run := func(_ context.Context, instruction, code string) (string, error) {
			return "def f():\n    \"\"\"Docstring.\"\"\"\n", nil
		}
		m := bt.New(run, "def f(): ...\n", recode.DefaultTheme(), bt.Config{Provider: "gemini"})

		tm := teatest.NewTestModel(t, m,
			teatest.WithInitialTermSize(80, 24),
		)

		tm.Type("add docstring")
		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlR})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Docstring.")) &&
				bytes.Contains(out, []byte("Rewrite applied"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Running())
		assert.NoError(t, final.Err())
		assert.Equal(t, 1, final.Rewrites())
	})

	t.Run("ctrl+c cancels a running rewrite", func(t *testing.T) {
		t.Parallel()

		run := func(ctx context.Context, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}
		m := bt.New(run, "x = 1\n", recode.DefaultTheme(), bt.Config{})

		tm := teatest.NewTestModel(t, m,
			teatest.WithInitialTermSize(80, 24),
		)

		tm.Type("change")
		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlR})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Rewriting with"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Rewrite cancelled"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	})
}
