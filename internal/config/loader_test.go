package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeEnv(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	cfg, err := load(strings.NewReader("llm:\n  provider: groq\n"), fakeEnv(map[string]string{
		"GROQ_API_KEY":     "groq-key",
		"OPENAI_API_KEY":   "openai-key",
		"DEEPGRAM_API_KEY": "deepgram-key",
	}))
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}

	if cfg.LLM.APIKey != "groq-key" {
		t.Fatalf("expected groq key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("expected groq default model, got %q", cfg.LLM.Model)
	}
	if cfg.Speech.APIKey != "deepgram-key" {
		t.Fatalf("expected deepgram key from env, got %q", cfg.Speech.APIKey)
	}
	if cfg.Speech.TalkMode != "voice" || cfg.Audio.Backend != BackendMiniaudio {
		t.Fatalf("expected voice mode on miniaudio, got %q on %q", cfg.Speech.TalkMode, cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 24000 || cfg.Storage.ConversationID != "default" {
		t.Fatalf("expected audio and storage defaults, got %+v %+v", cfg.Audio, cfg.Storage)
	}
}

func TestLoadKeepsExplicitKeys(t *testing.T) {
	input := "llm:\n  api_key: from-file\naudio:\n  backend: none\n"
	cfg, err := load(strings.NewReader(input), fakeEnv(map[string]string{"OPENAI_API_KEY": "from-env"}))
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.LLM.APIKey != "from-file" {
		t.Fatalf("expected file key to win, got %q", cfg.LLM.APIKey)
	}
	if cfg.SpeechEnabled() {
		t.Fatalf("expected speech to be disabled without an audio backend")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := load(strings.NewReader("llm:\n  temperature: 2\n"), fakeEnv(nil))
	if err == nil || !strings.Contains(err.Error(), "temperature") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	input := "llm:\n  provider: mystery\nspeech:\n  talk_mode: shout\naudio:\n  backend: alsa\n  sample_rate: 100\n"
	_, err := load(strings.NewReader(input), fakeEnv(nil))
	if err == nil {
		t.Fatalf("expected validation to fail")
	}

	for _, field := range []string{"llm.provider", "speech.talk_mode", "audio.backend", "audio.sample_rate", "speech.api_key"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected error to mention %s, got %v", field, err)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("DEEPGRAM_API_KEY", "deepgram-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for a missing file, got %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Fatalf("expected default provider, got %q", cfg.LLM.Provider)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "openai-key")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("audio:\n  backend: none\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if cfg.Audio.Backend != BackendNone {
		t.Fatalf("expected backend none, got %q", cfg.Audio.Backend)
	}
}

func TestSchemaUsesYAMLNames(t *testing.T) {
	out, err := Schema()
	if err != nil {
		t.Fatalf("expected schema, got %v", err)
	}

	var schema struct {
		Properties map[string]struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(out, &schema); err != nil {
		t.Fatalf("expected valid JSON schema, got %v", err)
	}
	if _, ok := schema.Properties["llm"].Properties["base_url"]; !ok {
		t.Fatalf("expected llm.base_url in schema, got %s", out)
	}
	if _, ok := schema.Properties["speech"].Properties["talk_mode"]; !ok {
		t.Fatalf("expected speech.talk_mode in schema, got %s", out)
	}
}
