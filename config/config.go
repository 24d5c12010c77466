// Package config builds the process-wide configuration once at startup.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every credential and knob the deployer needs. It is built once
// by Load and handed to each component's constructor.
type Config struct {
	StudentSecret       string       `json:"student_secret,omitempty"`
	ServerAddr          string       `json:"server_addr,omitempty"`
	MaxConcurrentBuilds int          `json:"max_concurrent_builds,omitempty"`
	LLM                 LLMConfig    `json:"llm"`
	GitHub              GitHubConfig `json:"github"`
}

// LLMConfig 选择生成模块使用的模型。
type LLMConfig struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	APIKey         string `json:"api_key,omitempty"`
	BaseURL        string `json:"base_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// GitHubConfig describes the hosting account and how sites are published.
type GitHubConfig struct {
	Username       string `json:"username,omitempty"`
	Token          string `json:"token,omitempty"`
	APIURL         string `json:"api_url,omitempty"`
	Branch         string `json:"branch,omitempty"`
	PagesDomain    string `json:"pages_domain,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	Scaffold       *bool  `json:"scaffold,omitempty"`
}

const (
	DefaultServerAddr          = ":8080"
	DefaultMaxConcurrentBuilds = 4
	DefaultProvider            = "openai"
	DefaultModel               = "gpt-4o-mini"
	DefaultGeminiModel         = "gemini-2.5-flash"
	DefaultLLMTimeout          = 60
	DefaultGitHubAPIURL        = "https://api.github.com"
	DefaultBranch              = "main"
	DefaultPagesDomain         = "github.io"
	DefaultGitHubTimeout       = 15
)

// Load reads the optional JSON file at path, overlays environment variables
// and fills defaults. A missing path is not an error; a missing file is.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.StudentSecret = env("STUDENT_SECRET", c.StudentSecret)
	c.ServerAddr = env("SERVER_ADDR", c.ServerAddr)
	c.MaxConcurrentBuilds = envInt("MAX_CONCURRENT_BUILDS", c.MaxConcurrentBuilds)

	c.LLM.Provider = strings.ToLower(env("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = env("LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = env("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.TimeoutSeconds = envInt("LLM_TIMEOUT_SECONDS", c.LLM.TimeoutSeconds)
	if c.LLM.Provider == "gemini" {
		c.LLM.APIKey = env("GEMINI_API_KEY", c.LLM.APIKey)
	} else {
		c.LLM.APIKey = env("OPENAI_API_KEY", c.LLM.APIKey)
	}

	c.GitHub.Username = env("GITHUB_USERNAME", c.GitHub.Username)
	c.GitHub.Token = env("GITHUB_TOKEN", c.GitHub.Token)
	c.GitHub.APIURL = env("GITHUB_API_URL", c.GitHub.APIURL)
	c.GitHub.Branch = env("GITHUB_BRANCH", c.GitHub.Branch)
	c.GitHub.PagesDomain = env("GITHUB_PAGES_DOMAIN", c.GitHub.PagesDomain)
	c.GitHub.TimeoutSeconds = envInt("GITHUB_TIMEOUT_SECONDS", c.GitHub.TimeoutSeconds)
	if v, ok := envBool("GITHUB_SCAFFOLD"); ok {
		c.GitHub.Scaffold = &v
	}
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.MaxConcurrentBuilds <= 0 {
		c.MaxConcurrentBuilds = DefaultMaxConcurrentBuilds
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultProvider
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == "gemini" {
			c.LLM.Model = DefaultGeminiModel
		} else {
			c.LLM.Model = DefaultModel
		}
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultLLMTimeout
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = DefaultGitHubAPIURL
	}
	if c.GitHub.Branch == "" {
		c.GitHub.Branch = DefaultBranch
	}
	if c.GitHub.PagesDomain == "" {
		c.GitHub.PagesDomain = DefaultPagesDomain
	}
	if c.GitHub.TimeoutSeconds <= 0 {
		c.GitHub.TimeoutSeconds = DefaultGitHubTimeout
	}
	if c.GitHub.Scaffold == nil {
		on := true
		c.GitHub.Scaffold = &on
	}
}

// Validate reports every missing credential at once. The shared secret is
// only needed by the HTTP entry point, so it is checked by RequireSecret.
func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "openai", "deepseek", "gemini":
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm provider %s requires an api key (OPENAI_API_KEY or GEMINI_API_KEY)", c.LLM.Provider))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("llm provider %s not supported", c.LLM.Provider))
	}
	if c.LLM.Provider == "deepseek" && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)"))
	}
	if c.GitHub.Username == "" {
		errs = append(errs, errors.New("GITHUB_USERNAME is required"))
	}
	if c.GitHub.Token == "" {
		errs = append(errs, errors.New("GITHUB_TOKEN is required"))
	}
	return errors.Join(errs...)
}

// RequireSecret fails when no shared secret is configured.
func (c Config) RequireSecret() error {
	if c.StudentSecret == "" {
		return errors.New("STUDENT_SECRET is required to serve build requests")
	}
	return nil
}

// LLMTimeout bounds one completion call.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// GitHubTimeout bounds one hosting-platform API call.
func (c Config) GitHubTimeout() time.Duration {
	return time.Duration(c.GitHub.TimeoutSeconds) * time.Second
}

// ScaffoldEnabled reports whether README/LICENSE/.nojekyll are published with the page.
func (c Config) ScaffoldEnabled() bool {
	return c.GitHub.Scaffold == nil || *c.GitHub.Scaffold
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envBool(k string) (bool, bool) {
	v := os.Getenv(k)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
