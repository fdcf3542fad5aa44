package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

const (
	BackendGemini    = "gemini"
	BackendChatGPT   = "chatgpt"
	BackendLangChain = "langchain"
)

type Config struct {
	Log      Log      `yaml:"log"`
	Discord  Discord  `yaml:"discord"`
	Backend  Backend  `yaml:"backend"`
	Dialogue Dialogue `yaml:"dialogue"`
	Prompts  Prompts  `yaml:"prompts"`
	Thread   Thread   `yaml:"thread"`
	Engine   Engine   `yaml:"engine"`
	HTTP     HTTP     `yaml:"http"`
}

type Log struct {
	// Minimum level of console logs
	Level string `yaml:"level" example:"info" validate:"oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

type Discord struct {
	// Bot token
	Token string `yaml:"token" example:"MTE0NjQ2.GxYz12.abcdefghijklmnopqrstuvwxyz0123456789AB" validate:"required"`
	// Prefix of operator commands
	CommandPrefix string `yaml:"command_prefix" example:"~" validate:"required"`
	// Maximum length of a single platform message
	MessageLimit int `yaml:"message_limit" example:"2000" validate:"gt=0"`
	// Room left under MessageLimit for formatting
	SafetyMargin int `yaml:"safety_margin" example:"100" validate:"gte=0,ltfield=MessageLimit"`
}

// SegmentLimit is the maximum size of one outbound segment.
func (d Discord) SegmentLimit() int {
	return d.MessageLimit - d.SafetyMargin
}

type Backend struct {
	// Which backend generates replies
	Kind string `yaml:"kind" example:"gemini" validate:"required,oneof=gemini chatgpt langchain"`
	// Timeout of a single backend request
	Timeout time.Duration `yaml:"timeout" example:"2m"`
	// Gemini backend config
	Gemini Gemini `yaml:"gemini"`
	// OpenAI-compatible backend config, used by chatgpt and langchain
	OpenAI OpenAI `yaml:"openai"`
}

type Gemini struct {
	// Gemini API key
	APIKey string `yaml:"api_key" example:"AIzaSyA-abcdefghijklmnopqrstuvwxyz012345"`
	// Gemini model
	Model string `yaml:"model" example:"gemini-2.5-flash-lite"`
}

type OpenAI struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://api.openai.com/v1"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// OpenAI model
	Model string `yaml:"model" example:"gpt-3.5-turbo"`
}

type Dialogue struct {
	// Word budget shared by the preamble and the rolling dialogue
	MaxLen int `yaml:"max_len" example:"1000" validate:"gt=0"`
}

type Prompts struct {
	// Directory holding <name>.txt prompt files
	Dir string `yaml:"dir" example:"prompts" validate:"required"`
	// Prompt applied to new conversations, empty for none
	Default string `yaml:"default" example:"about"`
}

type Thread struct {
	// Replies longer than this are moved into a new thread
	Threshold int `yaml:"threshold" example:"1900" validate:"gt=0"`
	// Auto archive duration of created threads
	ArchiveMinutes int `yaml:"archive_minutes" example:"1440" validate:"oneof=60 1440 4320 10080"`
}

type Engine struct {
	// Number of message workers
	Workers int `yaml:"workers" example:"8" validate:"gt=0"`
	// Capacity of each worker queue
	QueueSize int `yaml:"queue_size" example:"64" validate:"gt=0"`
}

type HTTP struct {
	// Listen address of the status API, empty disables it
	Listen string `yaml:"listen" example:":8080"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Log: Log{
			Level: "info",
		},
		Discord: Discord{
			CommandPrefix: "~",
			MessageLimit:  2000,
			SafetyMargin:  100,
		},
		Backend: Backend{
			Kind:    BackendGemini,
			Timeout: 2 * time.Minute,
			Gemini: Gemini{
				Model: "gemini-2.5-flash-lite",
			},
			OpenAI: OpenAI{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-3.5-turbo",
			},
		},
		Dialogue: Dialogue{
			MaxLen: 1000,
		},
		Prompts: Prompts{
			Dir: "prompts",
		},
		Thread: Thread{
			Threshold:      1900,
			ArchiveMinutes: 1440,
		},
		Engine: Engine{
			Workers:   8,
			QueueSize: 64,
		},
	}
}

// Parse decodes data over Default, so keys set explicitly, zero included,
// override the defaults.
func Parse(data []byte) (*Config, error) {
	result := Default()

	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	switch result.Backend.Kind {
	case BackendGemini:
		if result.Backend.Gemini.APIKey == "" {
			return nil, oops.In("config").Errorf("backend.gemini.api_key is required for the gemini backend")
		}
	case BackendChatGPT, BackendLangChain:
		if result.Backend.OpenAI.Token == "" {
			return nil, oops.In("config").Errorf("backend.openai.token is required for the %s backend", result.Backend.Kind)
		}
	}

	return &result, nil
}
