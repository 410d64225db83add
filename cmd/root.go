package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/clawface/internal/config"
)

var (
	cfgFile  string
	verbose  bool
	logLevel = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:   "clawface",
	Short: "Animated face for a chat gateway agent",
	Long: `clawface shows an expressive face for an agent on a chat gateway.

It runs as a push server for browser faces (serve), as a terminal face
(face) or as a one-shot chat client (chat).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CLAWFACE_CONFIG or ~/.clawface/config.json5)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(faceCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(onboardCmd())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return config.ExpandHome(cfgFile)
	}
	if p := os.Getenv("CLAWFACE_CONFIG"); p != "" {
		return config.ExpandHome(p)
	}
	return config.DefaultPath()
}

func setupLogging(w io.Writer) {
	if verbose {
		logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

// applyLogLevel sets the level from config unless --verbose pinned debug.
func applyLogLevel(cfg *config.Config) {
	if verbose {
		return
	}
	if lvl, ok := config.ParseLevel(cfg.Log.Level); ok {
		logLevel.Set(lvl)
	}
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyLogLevel(cfg)
	return cfg
}
