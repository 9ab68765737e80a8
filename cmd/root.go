package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"percy-figma/internal/config"
	"percy-figma/internal/logger"
	"percy-figma/internal/runner"
)

// debug flag indicates whether debug logging should be enabled.
var debug bool

// configPath holds the path to the YAML configuration file.
// It's passed via the `--config` or `-c` flag.
var configPath string

// figmaAPI and percyCmd override the remote API host and the upload tool.
// Both are hidden; they exist for staging setups and local testing.
var (
	figmaAPI string
	percyCmd string
)

// rootCmd renders the configured Figma nodes and uploads them to Percy.
var rootCmd = &cobra.Command{
	Use:   "percy-figma",
	Short: "Upload Figma designs to Percy",
	Long: `percy-figma renders the configured Figma node ids to PNG, downloads them
into a scratch folder, uploads the folder with the Percy CLI and removes it.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRun initializes the logger based on the debug flag.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Config errors abort before any network call
		cfg, err := config.LoadConfig(configPath, os.Getenv)
		if err != nil {
			return err
		}
		logger.Debug("[DEBUG] Loaded %s with %d ids (%T)\n", configPath, len(cfg.IDs), cfg.Source)

		_, err = runner.Run(cmd.Context(), cfg, runner.Options{
			FigmaBaseURL:  figmaAPI,
			UploadCommand: strings.Fields(percyCmd),
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to configuration file")

	rootCmd.Flags().StringVar(&figmaAPI, "figma-api", "", "Override the Figma API base URL")
	rootCmd.Flags().StringVar(&percyCmd, "percy-cmd", "", "Override the upload command (default \"npx percy\")")
	_ = rootCmd.Flags().MarkHidden("figma-api")
	_ = rootCmd.Flags().MarkHidden("percy-cmd")
}

// Execute runs the root command and exits non-zero on failure.
// Ctrl-C cancels in-flight downloads and the upload; cleanup still runs.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("[ERROR] %v\n", err)
		stop()
		os.Exit(1)
	}
}
