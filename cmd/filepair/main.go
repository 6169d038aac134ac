package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/filepair/filepair/internal/logx"
	"github.com/filepair/filepair/internal/pair"
	"github.com/filepair/filepair/internal/utils"
	"github.com/filepair/filepair/internal/version"
)

var (
	home, _           = os.UserHomeDir()
	defaultConfigPath = filepath.Join(home, ".filepair", "config.json")
)

var rootCmd = &cobra.Command{
	Use:   "filepair <path-a> <path-b>",
	Short: "Keep two files continuously mirrored",
	Long: `filepair links two files: an initial reconciliation pass resolves any
pre-existing divergence (creating backups when both sides have content), then
both files are watched and every change is copied onto the other side.`,
	Version: version.Detailed(),
	Args:    cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// config is loaded, attach the log file handler if one is set
		setupLogger()

		cfg := &pair.Config{
			PathA:     args[0],
			PathB:     args[1],
			Overwrite: viper.GetBool("overwrite"),
			Debounce:  time.Duration(viper.GetInt("debounce_ms")) * time.Millisecond,
		}

		syncer, err := pair.NewSyncer(cfg)
		if err != nil {
			return err
		}

		// args are valid, any later failure is operational
		cmd.SilenceUsage = true
		showHeader()

		defer slog.Info("Bye!")
		return syncer.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().Bool("overwrite", false, "resolve initial divergence by overwriting (backups are created)")
	rootCmd.Flags().Int("debounce", 500, "event coalescing window in milliseconds")
	rootCmd.Flags().String("logfile", "", "also write logs to this file")
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "filepair config file")
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	setupLogger()

	return rootCmd.ExecuteContext(ctx)
}

func setupLogger() {
	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})

	handlers := []slog.Handler{stdoutHandler}

	if logFile := viper.GetString("log_file"); logFile != "" {
		if err := utils.EnsureParent(logFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
			os.Exit(1)
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	slog.SetDefault(slog.New(logx.NewTeeHandler(handlers...)))
}

func loadConfig(cmd *cobra.Command) error {
	// config path
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".filepair"))
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	// Read config file, missing file is fine
	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	// Bind flags to viper
	viper.BindPFlag("overwrite", cmd.Flags().Lookup("overwrite"))
	viper.BindPFlag("debounce_ms", cmd.Flags().Lookup("debounce"))
	viper.BindPFlag("log_file", cmd.Flags().Lookup("logfile"))

	// Set up environment variables
	viper.SetEnvPrefix("FILEPAIR")
	viper.AutomaticEnv()

	return nil
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).Printf("%s %s\n", version.AppName, version.Short())
}
