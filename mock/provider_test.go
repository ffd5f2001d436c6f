package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/recode/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Generate(t *testing.T) {
	t.Parallel()
	t.Run("delegates to GenerateFn", func(t *testing.T) {
		t.Parallel()
		p := mock.Provider{
			GenerateFn: func(ctx context.Context, prompt string) (string, error) {
				return "echo: " + prompt, nil
			},
		}
		got, err := p.Generate(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "echo: hi", got)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("api error")
		p := mock.Provider{
			GenerateFn: func(ctx context.Context, prompt string) (string, error) {
				return "", wantErr
			},
		}
		_, err := p.Generate(context.Background(), "hi")
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("panics when GenerateFn not set", func(t *testing.T) {
		t.Parallel()
		p := mock.Provider{}
		assert.Panics(t, func() {
			_, _ = p.Generate(context.Background(), "hi")
		})
	})
}

func TestProvider_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "mock", (&mock.Provider{}).Name())
	p := mock.Provider{NameFn: func() string { return "gemini" }}
	assert.Equal(t, "gemini", p.Name())
}

func TestObserver_NilSafe(t *testing.T) {
	t.Parallel()
	var o mock.Observer
	assert.NotPanics(t, func() {
		o.ObserveAttempt("mock", time.Second, nil)
		o.ObserveRewrite("mock", 1, nil)
	})
}
