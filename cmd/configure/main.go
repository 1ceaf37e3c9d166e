package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/starcrunch/starcrunch-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "starcrunch-configure",
		Short: "Configuration tool for the Starcrunch API",
		Long:  "CLI tool for configuring OIDC providers, CORS origins, and rate limits",
	}

	rootCmd.AddCommand(commands.NewOIDCCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
