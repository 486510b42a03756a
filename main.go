package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/config"
	"github.com/soshbru/soshbru/pkg/logging"
)

var (
	configPath string
	verbose    bool
	lowMem     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "soshbru",
	Short: "soshbru - cafe discovery for remote professionals",
	Long: `soshbru finds work-friendly cafes: filter by WiFi, noise, power,
occupancy and more, search by name, and see who is working there.

Run without arguments to start the API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		// stdout carries the MCP protocol stream.
		if cmd.Name() == "mcp" {
			logger, err = logging.NewStderr(verbose)
		} else {
			logger, err = logging.New(verbose)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve cafe search to MCP clients over stdio",
	RunE:  runMCP,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse cafes interactively in the terminal",
	RunE:  runBrowse,
}

var filtersCmd = &cobra.Command{
	Use:   "filters [query]",
	Short: "List the filters and how many cafes each keeps",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFilters,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&lowMem, "low-mem", false, "tune the embedded database for small instances")

	rootCmd.AddCommand(serveCmd, mcpCmd, browseCmd, filtersCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
