package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const settingsDirName = ".comet"

// Settings represents the main application settings.
type Settings struct {
	LLM LLMSettings `json:"llm"`
}

// LLMSettings contains LLM client configuration.
type LLMSettings struct {
	Backend   string `json:"backend"`              // "lmstudio", "ollama", "anthropic", "openai", or "gemini"
	Model     string `json:"model"`                // model name
	BaseURL   string `json:"base_url,omitempty"`   // for lmstudio or openai (Azure)
	MaxTokens int    `json:"max_tokens,omitempty"` // maximum tokens for model responses (0 = use model default)
	TimeoutMS int    `json:"timeout_ms,omitempty"` // per-request timeout for the local backend
}

// Timeout converts the configured millisecond value to a duration. Zero means
// the backend default.
func (s LLMSettings) Timeout() time.Duration {
	if s.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// GetDefaultSettings returns settings with all defaults applied.
func GetDefaultSettings() *Settings {
	s := &Settings{}
	applyDefaults(s)
	return s
}

// DefaultSettingsPath returns the settings file location under the user's
// home directory.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(settingsDirName, "settings.json")
	}
	return filepath.Join(home, settingsDirName, "settings.json")
}

// LoadSettings loads application settings from a JSON file. A missing file
// yields defaults rather than an error; a malformed file is reported.
func LoadSettings(configPath string) (*Settings, error) {
	if configPath == "" {
		configPath = DefaultSettingsPath()
	}

	settings := &Settings{}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, errors.Wrapf(err, "failed to parse settings file %s", configPath)
		}
	case os.IsNotExist(err):
		// First run, defaults apply.
	default:
		return nil, errors.Wrapf(err, "failed to read settings file %s", configPath)
	}

	applyDefaults(settings)
	applyEnvOverrides(settings)
	return settings, nil
}

// SaveSettings writes settings as indented JSON, creating the directory when
// needed.
func SaveSettings(configPath string, settings *Settings) error {
	if configPath == "" {
		configPath = DefaultSettingsPath()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	return errors.Wrap(os.WriteFile(configPath, data, 0644), "failed to write settings")
}

func applyDefaults(s *Settings) {
	if s.LLM.Backend == "" {
		s.LLM.Backend = "lmstudio"
	}
	if s.LLM.BaseURL == "" && s.LLM.Backend == "lmstudio" {
		s.LLM.BaseURL = "http://localhost:1234"
	}
}

// applyEnvOverrides lets the environment take precedence over the file, so
// one-off runs don't require editing settings.
func applyEnvOverrides(s *Settings) {
	if backend := os.Getenv("COMET_BACKEND"); backend != "" {
		s.LLM.Backend = backend
	}
	if model := os.Getenv("COMET_MODEL"); model != "" {
		s.LLM.Model = model
	}
	if baseURL := os.Getenv("LMSTUDIO_BASE_URL"); baseURL != "" {
		s.LLM.BaseURL = baseURL
	}
	if timeout := os.Getenv("LMSTUDIO_TIMEOUT_MS"); timeout != "" {
		if ms, err := strconv.Atoi(timeout); err == nil && ms > 0 {
			s.LLM.TimeoutMS = ms
		}
	}
}

// ValidateCredentials checks that the API key a cloud backend needs is
// present before a client gets constructed. Local backends need none.
func (s *Settings) ValidateCredentials() error {
	var envVar string
	switch s.LLM.Backend {
	case "gemini":
		envVar = "GEMINI_API_KEY"
	case "openai":
		envVar = "OPENAI_API_KEY"
	case "anthropic", "claude":
		envVar = "ANTHROPIC_API_KEY"
	default:
		return nil
	}

	if os.Getenv(envVar) == "" {
		return errors.Errorf("%s environment variable not set for backend %q", envVar, s.LLM.Backend)
	}
	return nil
}
