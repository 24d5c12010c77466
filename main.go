package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llm_code_deployer/config"
	"llm_code_deployer/gateway"
	"llm_code_deployer/generator"
	"llm_code_deployer/publisher"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "llm_code_deployer",
	Short:         "Generate a single-page web app from a brief and publish it to GitHub Pages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "optional path to config.json (env wins over file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose || os.Getenv("DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newGateway wires generator and publisher from the configuration.
func newGateway(cfg config.Config, logger zerolog.Logger) (*gateway.Gateway, error) {
	llm, err := generator.NewLLM(generator.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLMTimeout(),
	})
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(llm, logger.With().Str("component", "generator").Logger())
	if err != nil {
		return nil, err
	}

	gh := publisher.NewGitHubClient(
		cfg.GitHub.APIURL,
		cfg.GitHub.Username,
		cfg.GitHub.Token,
		cfg.GitHubTimeout(),
		logger.With().Str("component", "github").Logger(),
	)
	pub, err := publisher.New(gh, publisher.Options{
		Branch:      cfg.GitHub.Branch,
		PagesDomain: cfg.GitHub.PagesDomain,
		Scaffold:    cfg.ScaffoldEnabled(),
	}, logger.With().Str("component", "publisher").Logger())
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("owner", cfg.GitHub.Username).
		Dur("llm_timeout", cfg.LLMTimeout()).
		Dur("github_timeout", cfg.GitHubTimeout()).
		Msg("pipeline configured")

	return gateway.New(agent, pub, gateway.Options{
		Secret:        cfg.StudentSecret,
		Owner:         cfg.GitHub.Username,
		MaxConcurrent: int64(cfg.MaxConcurrentBuilds),
	}, logger)
}
