package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expected := NewLogger(&Config{Level: InfoLevel, Output: &bytes.Buffer{}})
		ctx := ContextWithLogger(context.Background(), expected)

		assert.Equal(t, expected, FromContext(ctx))
	})

	t.Run("Should return default logger when context carries none", func(t *testing.T) {
		l := FromContext(context.Background())

		require.NotNil(t, l)
		l.Info("fallback logger works")
	})

	t.Run("Should ignore values of the wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey{}, "not a logger")

		require.NotNil(t, FromContext(ctx))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write text output with fields", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})

		l.With("component", "borrows").Info("book returned", "book_id", "b-1")

		out := buf.String()
		assert.Contains(t, out, "book returned")
		assert.Contains(t, out, "component")
		assert.Contains(t, out, "b-1")
	})

	t.Run("Should write JSON when enabled", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})

		l.Info("json line")

		out := buf.String()
		assert.Contains(t, out, "json line")
		assert.True(t, bytes.HasPrefix(bytes.TrimSpace(buf.Bytes()), []byte("{")))
	})

	t.Run("Should drop messages below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: WarnLevel, Output: &buf})

		l.Info("hidden")
		l.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}
