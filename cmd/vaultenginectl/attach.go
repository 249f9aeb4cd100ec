package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/riftlock/vaultengine/internal/auditlog"
	"github.com/riftlock/vaultengine/pkg/attachment"
	"github.com/riftlock/vaultengine/pkg/executors"

	"github.com/spf13/cobra"
)

var (
	attachName   string
	attachMime   string
	attachOutput string
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attachment operations on an unlocked vault's entries",
}

var attachPutCmd = &cobra.Command{
	Use:   "put [entry-id] [local-file]",
	Short: "Encrypts and stores a file as an attachment of the given entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}
		entryID, localFile := args[0], args[1]

		data, err := os.ReadFile(localFile)
		if err != nil {
			return fmt.Errorf("failed to read local file: %w", err)
		}
		name := attachName
		if name == "" {
			name = localFile
		}

		id := executors.NewUUID()
		ctx := context.Background()
		now := time.Now().Unix()
		if err := attachment.Put(ctx, e, files, entryID, id, name, attachMime, data, now); err != nil {
			_ = log.LogError(vaultFile, auditlog.OpAttachmentPut, err)
			return fmt.Errorf("failed to store attachment: %w", err)
		}
		_ = log.LogSuccess(vaultFile, auditlog.OpAttachmentPut, map[string]interface{}{"entryId": entryID, "attachmentId": id})

		fmt.Printf("Attachment stored: %s\n", id)
		return nil
	},
}

var attachGetCmd = &cobra.Command{
	Use:   "get [entry-id] [attachment-id]",
	Short: "Decrypts and retrieves an attachment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}
		entryID, id := args[0], args[1]

		data, err := attachment.Get(context.Background(), e, files, entryID, id)
		if err != nil {
			return fmt.Errorf("failed to retrieve attachment: %w", err)
		}

		if attachOutput == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(attachOutput, data, 0o600)
	},
}

var attachRemoveCmd = &cobra.Command{
	Use:   "remove [entry-id] [attachment-id]",
	Short: "Removes an attachment from an entry and its backing blob",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}
		entryID, id := args[0], args[1]

		if err := attachment.Remove(context.Background(), e, files, entryID, id); err != nil {
			_ = log.LogError(vaultFile, auditlog.OpAttachmentRemove, err)
			return fmt.Errorf("failed to remove attachment: %w", err)
		}
		_ = log.LogSuccess(vaultFile, auditlog.OpAttachmentRemove, map[string]interface{}{"entryId": entryID, "attachmentId": id})

		fmt.Println("Attachment removed.")
		return nil
	},
}

var attachListCmd = &cobra.Command{
	Use:   "list [entry-id]",
	Short: "Lists an entry's attachments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}

		details, err := attachment.List(e, args[0])
		if err != nil {
			return fmt.Errorf("failed to list attachments: %w", err)
		}
		for _, d := range details {
			fmt.Printf("%s\t%s\t%s\t%d bytes\n", d.ID, d.Name, d.Type, d.SizeOriginal)
		}
		return nil
	},
}
