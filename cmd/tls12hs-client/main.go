// Command tls12hs-client drives a TLS 1.2 client handshake against a
// remote server, for interop testing and diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nimbustls/tls12hs/internal/telemetry"
	"github.com/nimbustls/tls12hs/pkg/version"
)

var (
	flagLogLevel    string
	flagLogJSON     bool
	flagMetricsAddr string
)

func main() {
	root := &cobra.Command{
		Use:     "tls12hs-client",
		Short:   "TLS 1.2 client handshake driver",
		Version: version.String(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := []telemetry.LoggerOption{
				telemetry.WithLevel(telemetry.ParseLevel(flagLogLevel)),
			}
			if flagLogJSON {
				opts = append(opts, telemetry.WithFormat(telemetry.FormatJSON))
			}
			telemetry.SetLogger(telemetry.NewLogger(opts...))

			if flagMetricsAddr != "" {
				go func() {
					if err := telemetry.ServeMetrics(flagMetricsAddr, telemetry.GetMetrics()); err != nil {
						telemetry.Error("metrics server stopped", telemetry.Fields{"err": err})
					}
				}()
			}
		},
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error, off)")
	root.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
	root.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(newConnectCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newInspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
