// Package main provides the mediameta CLI, a thin front-end over the
// metadata sync engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	metasync "github.com/G1enB1and/MediaManagerX"
	"github.com/G1enB1and/MediaManagerX/catalog/sqlite"
	"github.com/G1enB1and/MediaManagerX/log"
)

var (
	flagConfigDir string
	flagCatalog   string
	flagLogLevel  string
	flagLogFile   string
	flagJSON      bool
)

// engine is initialized by PersistentPreRunE and shared by all
// subcommands.
var engine *metasync.Engine

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mediameta",
	Short: "mediameta keeps catalog metadata and embedded file metadata in sync",
	Long: `mediameta manages two metadata layers for local media files: the
catalog record stored in a SQLite database, and the metadata embedded
inside JPEG and PNG files themselves. Each command touches exactly one
layer; nothing syncs implicitly.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initEngine,
	PersistentPostRunE: closeEngine,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: OS config dir /MediaManagerX)")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "catalog database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mediameta v0.1.0")
	},
}

// initEngine loads the config, opens the catalog store, and builds the
// engine.
func initEngine(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadConfig(flagConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	catalogPath := cfg.GetString(cfgKeyCatalogPath)
	if flagCatalog != "" {
		catalogPath = flagCatalog
	}

	level := cfg.GetString(cfgKeyLogLevel)
	if flagLogLevel != "" {
		level = flagLogLevel
	}

	logFile := cfg.GetString(cfgKeyLogFile)
	if flagLogFile != "" {
		logFile = flagLogFile
	}

	opts := []metasync.EngineOption{
		metasync.WithLogLevel(log.Parse(level)),
	}
	if logFile != "" {
		opts = append(opts, metasync.WithLogFile(logFile))
	}

	store, err := sqlite.NewSQLiteStore(catalogPath)
	if err != nil {
		return fmt.Errorf("open catalog %q: %w", catalogPath, err)
	}

	engine, err = metasync.NewEngine(store, opts...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	if err := engine.Open(cmd.Context()); err != nil {
		return fmt.Errorf("open catalog %q: %w", catalogPath, err)
	}
	return nil
}

func closeEngine(cmd *cobra.Command, args []string) error {
	if engine == nil {
		return nil
	}
	return engine.Close(cmd.Context())
}
