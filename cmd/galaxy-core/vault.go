package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the conversation vault",
	Long:  `Import or export archived turns without running the server.`,
}

var vaultImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Merge a vault file into the archive",
	Long:  `Validates every record first; nothing is merged when any record is invalid.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runVaultImport,
}

var vaultExportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write the archive to a dated JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVaultExport,
}

func init() {
	vaultCmd.AddCommand(vaultImportCmd)
	vaultCmd.AddCommand(vaultExportCmd)
	rootCmd.AddCommand(vaultCmd)
}

func runVaultImport(cmd *cobra.Command, args []string) error {
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	vault, closeFn, err := openVault(cmd.Context(), newLogger())
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := vault.Import(cmd.Context(), payload)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries (%d added, %d updated), vault now holds %d\n",
		report.Imported, report.Added, report.Updated, report.Total)
	return nil
}

func runVaultExport(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	vault, closeFn, err := openVault(cmd.Context(), newLogger())
	if err != nil {
		return err
	}
	defer closeFn()

	export, err := vault.Export(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	path := filepath.Join(dir, export.FileName)
	if err := os.WriteFile(path, export.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", export.Count, path)
	return nil
}
