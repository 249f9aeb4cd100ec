package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var optimiseCmd = &cobra.Command{
	Use:   "optimise",
	Short: "Flattens the unlocked vault's history into its minimal equivalent construction sequence",
	Long: `Replaces the in-memory history with the shortest sequence of commands
that reconstructs the same tree (pkg/flatten), when the history is long
enough or carries a destructive command to make that worthwhile. Every
entry's per-property change history is reset as part of the flatten.
Run 'save' afterwards to persist the shorter history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}
		if !e.Optimise() {
			fmt.Println("History is already minimal; nothing to do.")
			return nil
		}
		fmt.Printf("History optimised to %d lines.\n", len(e.Lines()))
		return nil
	},
}
