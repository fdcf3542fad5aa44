package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
discord:
  token: abc
backend:
  gemini:
    api_key: key
`))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "~", cfg.Discord.CommandPrefix)
	assert.Equal(t, 1900, cfg.Discord.SegmentLimit())
	assert.Equal(t, BackendGemini, cfg.Backend.Kind)
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Backend.Gemini.Model)
	assert.Equal(t, 1000, cfg.Dialogue.MaxLen)
	assert.Equal(t, "prompts", cfg.Prompts.Dir)
	assert.Equal(t, 1900, cfg.Thread.Threshold)
	assert.Equal(t, 1440, cfg.Thread.ArchiveMinutes)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, 64, cfg.Engine.QueueSize)
	assert.Empty(t, cfg.HTTP.Listen)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
discord:
  token: abc
  command_prefix: "!"
  message_limit: 500
  safety_margin: 20
backend:
  kind: chatgpt
  timeout: 30s
  openai:
    token: sk-test
    model: gpt-4o-mini
dialogue:
  max_len: 300
thread:
  threshold: 800
  archive_minutes: 60
`))
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.Discord.CommandPrefix)
	assert.Equal(t, 480, cfg.Discord.SegmentLimit())
	assert.Equal(t, BackendChatGPT, cfg.Backend.Kind)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Backend.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Backend.OpenAI.BaseURL)
	assert.Equal(t, 300, cfg.Dialogue.MaxLen)
	assert.Equal(t, 800, cfg.Thread.Threshold)
}

func TestParse_ExplicitZeroOverridesDefault(t *testing.T) {
	cfg, err := Parse([]byte(`
discord:
  token: abc
  safety_margin: 0
backend:
  gemini:
    api_key: key
`))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Discord.SafetyMargin)
	assert.Equal(t, 2000, cfg.Discord.SegmentLimit())
	assert.Equal(t, 100, Default().Discord.SafetyMargin)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing token", "backend:\n  gemini:\n    api_key: key\n"},
		{"unknown backend", "discord:\n  token: abc\nbackend:\n  kind: llama\n"},
		{"margin above limit", "discord:\n  token: abc\n  message_limit: 100\n  safety_margin: 200\nbackend:\n  gemini:\n    api_key: key\n"},
		{"missing gemini key", "discord:\n  token: abc\n"},
		{"missing openai token", "discord:\n  token: abc\nbackend:\n  kind: langchain\n"},
		{"bad archive duration", "discord:\n  token: abc\nbackend:\n  gemini:\n    api_key: key\nthread:\n  archive_minutes: 7\n"},
		{"malformed yaml", "discord: [\n"},
		{"zero message limit", "discord:\n  token: abc\n  message_limit: 0\nbackend:\n  gemini:\n    api_key: key\n"},
		{"unknown log level", "log:\n  level: loud\ndiscord:\n  token: abc\nbackend:\n  gemini:\n    api_key: key\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discord:\n  token: abc\nbackend:\n  gemini:\n    api_key: key\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Discord.Token)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
