package config

const (
	defaultAPIListen = ":8080"

	defaultStorageDriver = "memory"

	defaultLLMModel = "gpt-4o-mini"

	defaultSTTModel = "whisper-1"
	defaultTTSModel = "tts-1"
	defaultTTSVoice = "alloy"

	// defaultMaxWindow is 8 round-trip pairs per consultation.
	defaultMaxWindow uint = 8

	// defaultMaxUploadBytes caps audio uploads at 50 MiB.
	defaultMaxUploadBytes int64 = 50 << 20

	defaultEventsTopic = "sana.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		LLM: LLMConfig{
			Model: defaultLLMModel,
		},
		Speech: SpeechConfig{
			STTModel: defaultSTTModel,
			TTSModel: defaultTTSModel,
			TTSVoice: defaultTTSVoice,
		},
		Conversation: ConversationConfig{
			MaxWindow: defaultMaxWindow,
		},
		Pipeline: PipelineConfig{
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
