package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arnavshah/intervention-scheduler-api/pkg/config"
)

func main() {
	config.LoadDotEnv()

	rootCmd := &cobra.Command{
		Use:          "schedctl",
		Short:        "Offline tools for intervention schedules",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(optionsCmd())
	rootCmd.AddCommand(keygenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
