package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	ok   = color.New(color.FgGreen, color.Bold).SprintFunc()
	bad  = color.New(color.FgRed, color.Bold).SprintFunc()
	info = color.New(color.FgCyan).SprintFunc()
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad("error:"), err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "paygate",
		Short:         "paygate - PIX, card and checkout payment tooling",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file to load configuration from")

	root.AddCommand(pixCmd())
	root.AddCommand(installmentsCmd())
	root.AddCommand(signCmd())
	return root
}
