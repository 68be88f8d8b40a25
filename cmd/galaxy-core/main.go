package main

// @title           Galaxy Core API
// @version         1.0
// @description     Geography tutoring assistant. Ingests study material, answers questions grounded in it and archives the conversation.

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "galaxy-core",
	Short:         "Geography tutoring assistant core",
	Long:          `Runs the tutoring API and manages the conversation vault.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
