package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quickrollcall/rollcall/internal/interfaces/cli/server"
	"github.com/quickrollcall/rollcall/internal/interfaces/cli/session"
	"github.com/quickrollcall/rollcall/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "rollcall",
		Short:   "Quick Roll Call - QR based classroom attendance",
		Long:    `Quick Roll Call issues single-use attendance tokens for a class session, records check-ins and exports the roster as a PDF.`,
		Version: version.String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		session.NewCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
