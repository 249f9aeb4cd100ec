//go:build !windows

package datasource

import (
	"fmt"
	"path/filepath"
	"syscall"
)

// availableBytes reports free space on the filesystem backing root,
// falling back to root's parent directory if root does not exist yet
// (generalised from the teacher's Vault.CheckDiskSpace, pkg/vault/vault_unix.go).
func availableBytes(root string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(root, &stat); err != nil {
		parent := filepath.Dir(root)
		if err := syscall.Statfs(parent, &stat); err != nil {
			return 0, fmt.Errorf("failed to get disk stats: %w", err)
		}
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
