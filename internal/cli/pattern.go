// Package cli holds small helpers shared by cmd/vaultenginectl's
// subcommands.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MatchTitles resolves a glob pattern (shell-style *, ?, []) against a
// vault's entry titles, the way the teacher's ExpandPattern resolved a
// pattern against secret keys. A pattern with no glob characters is
// treated as an exact match.
func MatchTitles(pattern string, titles []string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	if !strings.ContainsAny(pattern, "*?[") {
		for _, title := range titles {
			if title == pattern {
				return []string{title}, nil
			}
		}
		return nil, fmt.Errorf("no entry titled %q", pattern)
	}

	var matches []string
	for _, title := range titles {
		matched, err := filepath.Match(pattern, title)
		if err != nil {
			return nil, err
		}
		if matched {
			matches = append(matches, title)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no entry titles match pattern %q", pattern)
	}
	return matches, nil
}
