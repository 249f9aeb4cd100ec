package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/riftlock/vaultengine/internal/auditlog"
	"github.com/riftlock/vaultengine/pkg/engine"
	"github.com/riftlock/vaultengine/pkg/strength"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes a new vault file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(vaultFile); err == nil {
			return fmt.Errorf("vault file already exists: %s", vaultFile)
		}

		password1, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}
		password2, err := readPassword("Confirm master password: ")
		if err != nil {
			return err
		}
		if password1 != password2 {
			return fmt.Errorf("passwords do not match")
		}
		if level := strength.ForMasterPassword(password1); level <= strength.Weak {
			return fmt.Errorf("master password too weak (must be at least 8 characters)")
		} else {
			fmt.Printf("Master password strength: %s\n", level)
		}

		e := engine.New()
		if err := e.Initialise("vaultengine-1"); err != nil {
			return fmt.Errorf("failed to initialise vault: %w", err)
		}

		data, err := e.Save(password1)
		if err != nil {
			return fmt.Errorf("failed to save vault: %w", err)
		}
		if err := os.WriteFile(vaultFile, data, 0o600); err != nil {
			return fmt.Errorf("failed to write vault file: %w", err)
		}

		if err := log.SetHMACKey([]byte(password1)); err == nil {
			_ = log.LogSuccess(vaultFile, auditlog.OpVaultUnlock, map[string]interface{}{"reason": "init"})
		}

		fmt.Printf("Vault initialized at %s\n", vaultFile)
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlocks the vault and holds its engine in memory for subsequent commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(vaultFile)
		if err != nil {
			return fmt.Errorf("failed to read vault file: %w", err)
		}

		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}

		e, err := engine.Open(data, password)
		if logErr := log.SetHMACKey([]byte(password)); logErr == nil {
			if err != nil {
				_ = log.LogError(vaultFile, auditlog.OpVaultUnlockFailed, err)
			} else {
				_ = log.LogSuccess(vaultFile, auditlog.OpVaultUnlock, nil)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to unlock vault: %w", err)
		}
		e.SetReadOnly(false)

		registerEngine(vaultFile, e)
		fmt.Println("Vault unlocked.")
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Drops the vault's in-memory engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds.Drop(vaultFile)
		_ = log.LogSuccess(vaultFile, auditlog.OpVaultLock, nil)
		fmt.Println("Vault locked.")
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persists the in-memory vault back to its file",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}

		password, err := readPassword("Enter master password to re-seal: ")
		if err != nil {
			return err
		}
		data, err := e.Save(password)
		if err != nil {
			return fmt.Errorf("failed to save vault: %w", err)
		}
		if err := os.WriteFile(vaultFile, data, 0o600); err != nil {
			return fmt.Errorf("failed to write vault file: %w", err)
		}

		// Save seals the engine; reopen it as mutable so the same
		// process can keep issuing commands against it.
		e2, err := engine.Open(data, password)
		if err != nil {
			return fmt.Errorf("failed to reopen vault after save: %w", err)
		}
		e2.SetReadOnly(false)
		registerEngine(vaultFile, e2)

		fmt.Println("Vault saved.")
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat",
	Short: "Prints the unlocked vault's tree as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}
		facade := vaultmodel.ToFacade(e.Tree())
		out, err := json.MarshalIndent(facade, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal vault facade: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}
