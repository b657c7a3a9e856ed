package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/amirasaad/paygate/pkg/signature"
	"github.com/spf13/cobra"
)

// now is swapped in tests.
var now = time.Now

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [secret] [payment-id]",
		Short: "Print x-signature headers for a payment notification",
		Long: `Sign builds the headers a processor sends with a payment notification.
Use it to replay webhooks against a local server.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID, _ := cmd.Flags().GetString("request-id")
			ts, _ := cmd.Flags().GetString("ts")
			if ts == "" {
				ts = strconv.FormatInt(now().Unix(), 10)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "x-signature: %s\n", signature.Sign(args[0], args[1], requestID, ts))
			if requestID != "" {
				fmt.Fprintf(out, "x-request-id: %s\n", requestID)
			}
			return nil
		},
	}
	cmd.Flags().StringP("request-id", "r", "", "x-request-id header value")
	cmd.Flags().String("ts", "", "unix timestamp (default now)")
	return cmd
}
