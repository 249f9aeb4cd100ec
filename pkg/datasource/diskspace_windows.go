//go:build windows

package datasource

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// availableBytes reports free space on the filesystem backing root,
// falling back to root's parent directory if root does not exist yet
// (generalised from the teacher's Vault.CheckDiskSpace, pkg/vault/vault_windows.go).
func availableBytes(root string) (uint64, error) {
	path := root
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Dir(path)
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("failed to convert path: %w", err)
	}
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, fmt.Errorf("failed to get disk stats: %w", err)
	}
	return freeBytesAvailable, nil
}
