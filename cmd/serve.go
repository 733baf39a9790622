package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jobcost/web"
)

var (
	servePort int
	serveTopN int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an initial refresh and serve the JSON API",
	Long: `Start a local HTTP server exposing merged jobs, filter options, people and
summary views as JSON.

One refresh cycle for the default range runs before the server starts. A failed
initial refresh is reported but does not stop the server; read endpoints answer
503 until POST /api/refresh succeeds.`,
	Example: `
  # Start local server on the configured port
  jobcost serve

  # Start on a custom port with top-5 lists in the summary
  jobcost serve --port 9090 --top 5
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		outcome := a.service.Refresh(cmd.Context(), a.defaultRange(), false)
		printOutcome(os.Stdout, outcome)

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		server := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: web.NewServer(a.service, web.Options{
				Logger:       a.logger,
				DefaultRange: a.defaultRange,
				TopN:         serveTopN,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		a.logger.Info().Int("port", port).Msg("listening")
		fmt.Printf("Listening on http://localhost:%d\n", port)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port (default: server.port from config)")
	serveCmd.Flags().IntVar(&serveTopN, "top", 10, "Number of jobs in the summary top lists")
}
