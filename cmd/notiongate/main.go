package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notiongate/notiongate/internal/engine"
	"github.com/notiongate/notiongate/pkg/config"
	"github.com/notiongate/notiongate/pkg/logger"
)

var (
	Version   = "dev"     // Default version for development
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "notiongate",
	Short: "REST gateway over Notion databases",
	Long: `notiongate exposes Notion databases as a conventional REST API:
dynamic database and row CRUD, workspace discovery, batch operations,
and a fixed-schema task board.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		log := logger.New("notiongate", Version)
		if debugFlag {
			log.EnableDebug()
		}

		eng := engine.NewEngine(cfg)
		eng.SetLogger(log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := eng.Start(ctx); err != nil {
			return fmt.Errorf("failed to start engine: %w", err)
		}

		<-ctx.Done()
		stop()

		return eng.Stop(context.Background())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notiongate v%s (build %s)\n", Version, GitCommit)
		fmt.Printf("Built: %s\n", BuildTime)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
