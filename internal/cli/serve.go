package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the momentum API server",
	Long: `Start the JSON API server (default 127.0.0.1:7878).

Every change made through the API recomputes metrics and insights; the latest
report is served at /api/report and Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	// Override config from flags
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}

	d, err := daemon.NewWithConfig(cmd.Context(), cfg, daemon.WithClock(newClock()))
	if err != nil {
		return err
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "momentum serving on http://%s\n", d.Addr())
	if cfg.Telemetry.Prometheus {
		fmt.Fprintf(out, "  Metrics: http://%s/metrics\n", d.Addr())
	}
	return d.Serve(cmd.Context())
}
