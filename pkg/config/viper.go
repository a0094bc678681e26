package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/sanahealth/sana/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if present in configDir, or the dotdir-resolved .sana/ directory when
// configDir is empty), and binds environment variables with the SANA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SANA_API_LISTEN, SANA_STORAGE_DRIVER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	if configDir == "" {
		resolved, err := dotdir.NewManager().Target("")
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		configDir = resolved
	}
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("SANA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// LoadFromViper builds a Config from a viper instance initialized with
// InitViper and resolves the LLM API key from the environment.
func LoadFromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		LLM: LLMConfig{
			Model:   v.GetString("llm.model"),
			BaseURL: v.GetString("llm.base_url"),
			APIKey:  v.GetString("llm.api_key"),
		},
		Speech: SpeechConfig{
			STTModel: v.GetString("speech.stt_model"),
			TTSModel: v.GetString("speech.tts_model"),
			TTSVoice: v.GetString("speech.tts_voice"),
		},
		Conversation: ConversationConfig{
			MaxWindow: v.GetUint("conversation.max_window"),
		},
		Pipeline: PipelineConfig{
			MaxUploadBytes: v.GetInt64("pipeline.max_upload_bytes"),
		},
		Events: EventsConfig{
			Brokers: v.GetString("events.brokers"),
			Topic:   v.GetString("events.topic"),
		},
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Storage
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// LLM
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)

	// Speech
	v.SetDefault("speech.stt_model", d.Speech.STTModel)
	v.SetDefault("speech.tts_model", d.Speech.TTSModel)
	v.SetDefault("speech.tts_voice", d.Speech.TTSVoice)

	// Conversation
	v.SetDefault("conversation.max_window", d.Conversation.MaxWindow)

	// Pipeline
	v.SetDefault("pipeline.max_upload_bytes", d.Pipeline.MaxUploadBytes)

	// Events
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
