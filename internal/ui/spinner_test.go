package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestSpin_NonInteractiveRunsInline(t *testing.T) {
	var out bytes.Buffer
	c := NewPlainConsole(strings.NewReader(""), &out)

	ran := false
	err := c.Spin(context.Background(), "Fetching issues", func(context.Context) error {
		ran = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, out.String(), "no spinner frames without a terminal")
}

func TestSpin_InteractiveStopsRenderer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var out bytes.Buffer
	c := NewPlainConsole(strings.NewReader(""), &out)
	c.interactive = true

	boom := errors.New("tracker unavailable")
	err := c.Spin(context.Background(), "Fetching issues", func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestSpin_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewPlainConsole(strings.NewReader(""), &bytes.Buffer{})
	c.interactive = true

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Spin(ctx, "Cloning", func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
}
