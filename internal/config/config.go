// Package config loads the ema-talk configuration file.
package config

// Provider names accepted in the llm section.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// Audio backends accepted in the audio section. BackendNone disables
// playback and capture; voice mode then only shows subtitles of what would
// have been spoken.
const (
	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
	BackendNone      = "none"
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4.1-mini",
	ProviderGroq:   "llama-3.3-70b-versatile",
}

// Config is the root of the YAML configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Speech    SpeechConfig    `yaml:"speech"`
	Audio     AudioConfig     `yaml:"audio"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LLMConfig struct {
	Provider string `yaml:"provider" jsonschema:"enum=openai,enum=groq,default=openai"`
	Model    string `yaml:"model" jsonschema:"description=Model name; defaults per provider"`
	BaseURL  string `yaml:"base_url" jsonschema:"format=uri"`
	// APIKey falls back to OPENAI_API_KEY or GROQ_API_KEY.
	APIKey       string `yaml:"api_key"`
	MaxTokens    int    `yaml:"max_tokens" jsonschema:"minimum=0,description=Response length cap; zero leaves it to the provider"`
	Instructions string `yaml:"instructions" jsonschema:"description=System instructions sent with every request"`
}

type SpeechConfig struct {
	// APIKey is the Deepgram key, falling back to DEEPGRAM_API_KEY.
	APIKey           string `yaml:"api_key"`
	Voice            string `yaml:"voice" jsonschema:"description=Deepgram Aura voice such as aura-2-thalia-en"`
	Locale           string `yaml:"locale" jsonschema:"default=en-US"`
	TalkMode         string `yaml:"talk_mode" jsonschema:"enum=chat,enum=voice,default=voice"`
	RecognitionModel string `yaml:"recognition_model" jsonschema:"default=nova-3"`
}

type AudioConfig struct {
	Backend    string `yaml:"backend" jsonschema:"enum=miniaudio,enum=portaudio,enum=none,default=miniaudio"`
	SampleRate int    `yaml:"sample_rate" jsonschema:"minimum=8000,default=24000"`
	// BufferSize is the portaudio frames per buffer.
	BufferSize int `yaml:"buffer_size" jsonschema:"minimum=64,default=1024"`
}

type StorageConfig struct {
	// Path of the SQLite database; empty keeps the transcript in memory.
	Path           string `yaml:"path"`
	ConversationID string `yaml:"conversation_id" jsonschema:"default=default"`
}

type TelemetryConfig struct {
	// TraceFile receives spans as JSON lines when set.
	TraceFile string `yaml:"trace_file"`
}

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOpenAI
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}
	if cfg.Speech.Locale == "" {
		cfg.Speech.Locale = "en-US"
	}
	if cfg.Speech.TalkMode == "" {
		cfg.Speech.TalkMode = "voice"
	}
	if cfg.Speech.RecognitionModel == "" {
		cfg.Speech.RecognitionModel = "nova-3"
	}
	if cfg.Audio.Backend == "" {
		cfg.Audio.Backend = BackendMiniaudio
	}
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = 24000
	}
	if cfg.Audio.BufferSize == 0 {
		cfg.Audio.BufferSize = 1024
	}
	if cfg.Storage.ConversationID == "" {
		cfg.Storage.ConversationID = "default"
	}
}

// ApplyEnv fills empty API keys from the environment.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case ProviderOpenAI:
			cfg.LLM.APIKey = getenv("OPENAI_API_KEY")
		case ProviderGroq:
			cfg.LLM.APIKey = getenv("GROQ_API_KEY")
		}
	}
	if cfg.Speech.APIKey == "" {
		cfg.Speech.APIKey = getenv("DEEPGRAM_API_KEY")
	}
}

// SpeechEnabled reports whether a synthesizer and an audio device are needed.
func (c *Config) SpeechEnabled() bool {
	return c.Audio.Backend != BackendNone
}
