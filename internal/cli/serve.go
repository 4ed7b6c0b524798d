package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/karthikpt1/mcpforge/internal/app"
	"github.com/karthikpt1/mcpforge/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort   int
	serveDBPath string
	serveDebug  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API server",
	Long: `Start the mcpforge web API with the generation endpoints and the
server registry.

Examples:
  mcpforge serve
  mcpforge serve --port 9090 --db ./forge.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &app.Config{
			Port:   servePort,
			DBPath: serveDBPath,
			Debug:  serveDebug,
		}

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer application.Close()

		srv := server.New(application)

		done := make(chan os.Signal, 1)
		signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			<-done
			application.Logger.Info("shutting down server...")
			srv.Shutdown()
		}()

		application.Logger.Info("starting server", "port", cfg.Port)
		fmt.Printf("mcpforge API running at http://localhost:%d\n", cfg.Port)

		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port to listen on")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "./mcpforge.db", "Path to SQLite database")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
}
