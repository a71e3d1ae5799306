package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/application/dues"
	"github.com/badyetly/badyetly/internal/config"
)

func TestNewPublisher_DisabledWithoutURL(t *testing.T) {
	publisher, closeFn, err := newPublisher(config.MessagingConfig{})
	require.NoError(t, err)

	assert.IsType(t, dues.NopPublisher{}, publisher)
	assert.NoError(t, closeFn())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
