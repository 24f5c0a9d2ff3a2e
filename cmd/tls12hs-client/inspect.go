package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimbustls/tls12hs/internal/telemetry"
	"github.com/nimbustls/tls12hs/pkg/ciphersuite"
	"github.com/nimbustls/tls12hs/pkg/version"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the cipher suites and build capabilities of this client",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s\n\n", version.Full())
			fmt.Printf("OpenTelemetry support: %v\n\n", telemetry.OTelEnabled())

			fmt.Println("supported cipher suites (preference order):")
			for _, s := range ciphersuite.All() {
				aead := "CBC"
				if s.Cipher.IsAEAD() {
					aead = "AEAD"
				}
				fmt.Printf("  0x%04X  %-44s kex=%-12s %s\n", s.ID, s.Name, s.Kex, aead)
			}
		},
	}
}
