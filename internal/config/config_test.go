package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, DefaultLLMModel, cfg.LLM.Model)
	assert.Equal(t, DefaultOCRRegion, cfg.OCR.Region)
	assert.Equal(t, "https://ocr.us.cloudvision.example.com/v1/recognize", cfg.OCR.Endpoint)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"
format = "json"

[server]
addr = ":9090"

[slack]
signing_secret = "sek"
bot_token = "xoxb-1"

[ocr]
endpoint = "https://ocr.example.com/v1"
api_key = "k"
secret = "s"
region = "ap-northeast-1"

[llm]
api_key = "sk-1"
model = "gpt-4o"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sek", cfg.Slack.SigningSecret)
	assert.Equal(t, "xoxb-1", cfg.Slack.BotToken)
	assert.Equal(t, "https://ocr.example.com/v1", cfg.OCR.Endpoint)
	assert.Equal(t, "ap-northeast-1", cfg.OCR.Region)
	// File values merge over defaults; unset keys keep theirs.
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)

	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[slack]
signing_secret = "from-file"
bot_token = "from-file"
`), 0o600))

	t.Setenv("SLACK_SIGNING_SECRET", "from-env")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("LISTEN_ADDR", ":7070")
	t.Setenv("OCR_REGION", "eu")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Slack.SigningSecret)
	assert.Equal(t, "xoxb-env", cfg.Slack.BotToken)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "https://ocr.eu.cloudvision.example.com/v1/recognize", cfg.OCR.Endpoint)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRequiresSecrets(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	// Slack, OCR, and LLM credentials are all unset.
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	cfg.Slack.SigningSecret = "sek"
	cfg.Slack.BotToken = "xoxb-1"
	cfg.OCR.APIKey = "k"
	cfg.OCR.Secret = "s"
	cfg.LLM.APIKey = "sk-1"
	require.NoError(t, cfg.Validate())
}
