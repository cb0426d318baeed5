package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration at path. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return load(nil, os.Getenv)
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes, completes and validates a YAML config from r.
func LoadFromReader(r io.Reader) (*Config, error) {
	return load(r, os.Getenv)
}

func load(r io.Reader, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if r != nil {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	ApplyDefaults(cfg)
	ApplyEnv(cfg, getenv)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks a defaulted config and returns every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if _, ok := defaultModels[cfg.LLM.Provider]; !ok {
		errs = append(errs, fmt.Errorf("llm.provider %q is invalid; valid values: openai, groq", cfg.LLM.Provider))
	} else if cfg.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q", cfg.LLM.Provider))
	}

	if cfg.LLM.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens %d is negative", cfg.LLM.MaxTokens))
	}

	if !slices.Contains([]string{"chat", "voice"}, cfg.Speech.TalkMode) {
		errs = append(errs, fmt.Errorf("speech.talk_mode %q is invalid; valid values: chat, voice", cfg.Speech.TalkMode))
	}

	if !slices.Contains([]string{BackendMiniaudio, BackendPortaudio, BackendNone}, cfg.Audio.Backend) {
		errs = append(errs, fmt.Errorf("audio.backend %q is invalid; valid values: miniaudio, portaudio, none", cfg.Audio.Backend))
	}
	if cfg.Audio.SampleRate < 8000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is below 8000", cfg.Audio.SampleRate))
	}
	if cfg.Audio.BufferSize < 64 {
		errs = append(errs, fmt.Errorf("audio.buffer_size %d is below 64", cfg.Audio.BufferSize))
	}
	if cfg.SpeechEnabled() && cfg.Speech.APIKey == "" {
		errs = append(errs, errors.New("speech.api_key is required unless audio.backend is none"))
	}

	return errors.Join(errs...)
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "ema-talk configuration"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("config: marshal schema: %w", err)
	}
	return out, nil
}
