package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent sana configuration stored as config.toml.
// The TOML layout uses sections for logical grouping.
type Config struct {
	Version      int                `toml:"version"`
	API          APIConfig          `toml:"api"`
	Storage      StorageConfig      `toml:"storage"`
	LLM          LLMConfig          `toml:"llm"`
	Speech       SpeechConfig       `toml:"speech"`
	Conversation ConversationConfig `toml:"conversation"`
	Pipeline     PipelineConfig     `toml:"pipeline"`
	Events       EventsConfig       `toml:"events"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig holds the session history storage settings.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// LLMConfig holds language model provider settings.
// The API key is intentionally not persisted to the config file;
// it is read from the environment (SANA_LLM_API_KEY or OPENAI_API_KEY).
type LLMConfig struct {
	Model   string `toml:"model,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"-"`
}

// SpeechConfig holds speech-to-text and text-to-speech settings.
type SpeechConfig struct {
	STTModel string `toml:"stt_model,omitempty"`
	TTSModel string `toml:"tts_model,omitempty"`
	TTSVoice string `toml:"tts_voice,omitempty"`
}

// ConversationConfig holds dialogue policy settings.
// MaxWindow is the round-trip pair budget for one consultation; the final
// diagnosis instruction fires once the stored turn count reaches 2*MaxWindow-1.
type ConversationConfig struct {
	MaxWindow uint `toml:"max_window,omitempty"`
}

// PipelineConfig holds audio pipeline settings.
type PipelineConfig struct {
	MaxUploadBytes int64 `toml:"max_upload_bytes,omitempty"`
}

// EventsConfig holds turn event publishing settings. Brokers is a
// comma-separated kafka broker list; empty disables publishing.
type EventsConfig struct {
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.base_url": {
		get: func(c *Config) string { return c.LLM.BaseURL },
		set: func(c *Config, v string) error { c.LLM.BaseURL = v; return nil },
	},
	"speech.stt_model": {
		get: func(c *Config) string { return c.Speech.STTModel },
		set: func(c *Config, v string) error { c.Speech.STTModel = v; return nil },
	},
	"speech.tts_model": {
		get: func(c *Config) string { return c.Speech.TTSModel },
		set: func(c *Config, v string) error { c.Speech.TTSModel = v; return nil },
	},
	"speech.tts_voice": {
		get: func(c *Config) string { return c.Speech.TTSVoice },
		set: func(c *Config, v string) error { c.Speech.TTSVoice = v; return nil },
	},
	"conversation.max_window": {
		get: func(c *Config) string {
			if c.Conversation.MaxWindow == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Conversation.MaxWindow), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for conversation.max_window: %w", err)
			}
			c.Conversation.MaxWindow = uint(n)
			return nil
		},
	},
	"pipeline.max_upload_bytes": {
		get: func(c *Config) string {
			if c.Pipeline.MaxUploadBytes == 0 {
				return ""
			}
			return strconv.FormatInt(c.Pipeline.MaxUploadBytes, 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for pipeline.max_upload_bytes: %w", err)
			}
			c.Pipeline.MaxUploadBytes = n
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
