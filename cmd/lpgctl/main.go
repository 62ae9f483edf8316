// Command lpgctl derives merchant credentials offline, the same way wallet
// clients do, and signs payloads for webhook receiver debugging.
package main

import (
	"fmt"
	"io"
	"os"

	"lightning-payment-gateway/internal/service"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lpgctl",
		Short:         "Lightning Payment Gateway credential tooling",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().String("product", service.DefaultIdentityProduct, "Identity domain-separation prefix")

	rootCmd.AddCommand(deriveCmd())
	rootCmd.AddCommand(hashTokenCmd())
	rootCmd.AddCommand(signCmd())

	return rootCmd
}

func deriverFrom(cmd *cobra.Command) *service.IdentityDeriver {
	product, _ := cmd.Flags().GetString("product")
	return service.NewIdentityDeriver(product)
}

func deriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derive [seed]",
		Short: "Print the merchant ID, auth token and stored hash for a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := deriverFrom(cmd)
			token := d.DeriveAuthToken(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "merchantId:    %s\n", d.DeriveMerchantID(args[0]))
			fmt.Fprintf(out, "authToken:     %s\n", token)
			fmt.Fprintf(out, "authTokenHash: %s\n", d.HashAuthToken(token))
			return nil
		},
	}
}

func hashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print the stored hash for a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), deriverFrom(cmd).HashAuthToken(args[0]))
			return nil
		},
	}
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [body]",
		Short: "Print the X-Signature value for a webhook body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.NewHMACSignatureService().Sign(secret, args[0]))
			return nil
		},
	}
	cmd.Flags().StringP("secret", "s", "", "Merchant webhook secret (whsec_...)")
	return cmd
}
