package main

import (
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/pkg/handshake"
	"github.com/nimbustls/tls12hs/pkg/recordlayer"
)

func newBenchCmd() *cobra.Command {
	var (
		iterations int
		serverName string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bench <host:port>",
		Short: "Run repeated handshakes and report latency percentiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(args[0], serverName, iterations, timeout)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 20, "number of handshakes")
	cmd.Flags().StringVar(&serverName, "server-name", "", "SNI hostname (defaults to the host part of the address)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-read/write deadline")

	return cmd
}

func runBench(addr, serverName string, iterations int, timeout time.Duration) error {
	if serverName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", addr, err)
		}
		serverName = host
	}

	durations := make([]time.Duration, 0, iterations)
	failures := 0

	for i := 0; i < iterations; i++ {
		d, err := oneHandshake(addr, serverName, timeout)
		if err != nil {
			failures++
			continue
		}
		durations = append(durations, d)
	}

	if len(durations) == 0 {
		return fmt.Errorf("all %d handshakes failed", iterations)
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	pct := func(p float64) time.Duration {
		idx := int(p * float64(len(durations)-1))
		return durations[idx]
	}

	fmt.Printf("handshakes: %d ok, %d failed\n", len(durations), failures)
	fmt.Printf("  min:  %s\n", durations[0].Round(time.Microsecond))
	fmt.Printf("  avg:  %s\n", (total / time.Duration(len(durations))).Round(time.Microsecond))
	fmt.Printf("  p50:  %s\n", pct(0.50).Round(time.Microsecond))
	fmt.Printf("  p95:  %s\n", pct(0.95).Round(time.Microsecond))
	fmt.Printf("  max:  %s\n", durations[len(durations)-1].Round(time.Microsecond))
	return nil
}

func oneHandshake(addr, serverName string, timeout time.Duration) (time.Duration, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	record := recordlayer.NewStream(conn, constants.VersionTLS12)
	record.SetDeadlines(timeout, timeout)

	ctx, err := handshake.NewBuilder(record, handshake.WithServerName(serverName)).Build()
	if err != nil {
		return 0, err
	}
	defer ctx.Close()

	start := time.Now()
	if err := ctx.Run(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
