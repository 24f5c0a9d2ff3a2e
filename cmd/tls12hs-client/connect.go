package main

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nimbustls/tls12hs/internal/constants"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/handshake"
	"github.com/nimbustls/tls12hs/pkg/recordlayer"
)

type connectFlags struct {
	serverName string
	alpn       []string
	suites     []string
	tickets    bool
	timeout    time.Duration
}

func newConnectCmd() *cobra.Command {
	var f connectFlags

	cmd := &cobra.Command{
		Use:   "connect <host:port>",
		Short: "Run one handshake against a server and print the negotiated session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.serverName, "server-name", "", "SNI hostname (defaults to the host part of the address)")
	cmd.Flags().StringSliceVar(&f.alpn, "alpn", nil, "ALPN protocols to offer")
	cmd.Flags().StringSliceVar(&f.suites, "cipher-suites", nil, "cipher suite ids to offer (hex, e.g. 0xC030)")
	cmd.Flags().BoolVar(&f.tickets, "session-tickets", false, "offer the session_ticket extension")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "per-read/write deadline")

	return cmd
}

func runConnect(addr string, f connectFlags) error {
	serverName := f.serverName
	if serverName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", addr, err)
		}
		serverName = host
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	record := recordlayer.NewStream(conn, constants.VersionTLS12)
	record.SetDeadlines(f.timeout, f.timeout)

	opts := []handshake.Option{
		handshake.WithServerName(serverName),
		handshake.WithSessionTickets(f.tickets),
	}
	if len(f.alpn) > 0 {
		opts = append(opts, handshake.WithALPN(f.alpn...))
	}
	if len(f.suites) > 0 {
		ids, err := parseSuiteIDs(f.suites)
		if err != nil {
			return err
		}
		opts = append(opts, handshake.WithCipherSuites(ids...))
	}

	ctx, err := handshake.NewBuilder(record, opts...).Build()
	if err != nil {
		return err
	}
	defer ctx.Close()

	start := time.Now()
	if err := ctx.Run(); err != nil {
		return fmt.Errorf("handshake failed in state %s: %w", ctx.State, err)
	}

	sess := ctx.Session
	suiteName := fmt.Sprintf("0x%04X", sess.CipherSuiteID)
	if s, ok := ciphersuite.ByID(sess.CipherSuiteID); ok {
		suiteName = s.Name
	}

	fmt.Printf("handshake complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  version:       %s\n", sess.ProtocolVersion)
	fmt.Printf("  cipher suite:  %s\n", suiteName)
	fmt.Printf("  session id:    %x\n", sess.SessionID)
	if sess.ALPN != "" {
		fmt.Printf("  alpn:          %s\n", sess.ALPN)
	}
	if len(sess.Ticket) > 0 {
		fmt.Printf("  ticket:        %d bytes (lifetime %ds)\n", len(sess.Ticket), sess.TicketLifetime)
	}
	fmt.Printf("  peer chain:    %d certificate(s)\n", len(sess.PeerCertChain))
	return nil
}

func parseSuiteIDs(in []string) ([]uint16, error) {
	out := make([]uint16, 0, len(in))
	for _, s := range in {
		var id uint16
		cleaned := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
		if _, err := fmt.Sscanf(cleaned, "%04x", &id); err != nil {
			return nil, fmt.Errorf("invalid cipher suite id %q", s)
		}
		out = append(out, id)
	}
	return out, nil
}
