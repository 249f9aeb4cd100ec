package main

import (
	"fmt"
	"os"

	"github.com/riftlock/vaultengine/internal/auditlog"
	"github.com/riftlock/vaultengine/pkg/engine"
	"github.com/riftlock/vaultengine/pkg/merge"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [remote-vault-file]",
	Short: "Merges a remote vault's history into the active vault, keeping the active vault's edits on conflict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strongEngine, err := currentEngine()
		if err != nil {
			return err
		}

		remoteData, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read remote vault file: %w", err)
		}
		remotePassword, err := readPassword("Enter remote vault's master password: ")
		if err != nil {
			return err
		}
		weakEngine, err := engine.Open(remoteData, remotePassword)
		if err != nil {
			return fmt.Errorf("failed to open remote vault: %w", err)
		}

		merged, err := merge.Merge(strongEngine.Lines(), weakEngine.Lines())
		ctx := map[string]interface{}{"remoteFile": args[0]}
		if err != nil {
			_ = log.LogError(vaultFile, auditlog.OpMerge, err)
			return fmt.Errorf("merge failed: %w", err)
		}

		e := engine.New()
		if err := e.Load(merged); err != nil {
			return fmt.Errorf("failed to replay merged history: %w", err)
		}
		e.SetReadOnly(false)
		registerEngine(vaultFile, e)
		ctx["lines"] = len(merged)
		_ = log.LogSuccess(vaultFile, auditlog.OpMerge, ctx)

		fmt.Printf("Merged %d history lines. Run 'save' to persist.\n", len(merged))
		return nil
	},
}
