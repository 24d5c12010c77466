package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildStudent   string
	buildBrief     string
	buildBriefFile string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate and publish one site from the shell",
	Long: `Run the generate -> publish pipeline once and print the pages URL.
The operator already holds the credentials, so no shared secret is checked.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildStudent, "student", "", "student identifier (required)")
	buildCmd.Flags().StringVar(&buildBrief, "brief", "", "natural-language brief")
	buildCmd.Flags().StringVar(&buildBriefFile, "brief-file", "", "read the brief from a file")
	_ = buildCmd.MarkFlagRequired("student")
	buildCmd.MarkFlagsMutuallyExclusive("brief", "brief-file")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	brief := buildBrief
	if buildBriefFile != "" {
		data, err := os.ReadFile(buildBriefFile)
		if err != nil {
			return fmt.Errorf("failed to read brief file: %w", err)
		}
		brief = string(data)
	}
	if brief == "" {
		return errors.New("--brief or --brief-file is required")
	}

	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}

	res, err := gw.Deploy(cmd.Context(), buildStudent, brief)
	if err != nil {
		return err
	}

	logger.Info().Str("repo", res.RepoURL).Msg("build deployed")
	fmt.Fprintln(cmd.OutOrStdout(), res.PagesURL)
	return nil
}
