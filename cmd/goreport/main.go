package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignatij/goreport/internal/cli"
)

var rootCmd = &cobra.Command{Use: "goreport"}

func main() {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (defaults to DATABASE_URL)")
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
