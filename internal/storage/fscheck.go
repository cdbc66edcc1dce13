package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var remoteFilesystems = map[string]struct{}{
	"afpfs":  {},
	"cifs":   {},
	"nfs":    {},
	"smbfs":  {},
	"smb2":   {},
	"webdav": {},
}

// checkLocalFilesystem refuses database paths on network mounts, where
// SQLite file locking is unreliable.
func checkLocalFilesystem(path string) error {
	return checkLocalFilesystemWith(path, detectFilesystemType)
}

func checkLocalFilesystemWith(path string, detect func(string) (string, error)) error {
	if path == "" {
		return fmt.Errorf("sqlite path is empty")
	}

	probe, err := closestExistingAncestor(path)
	if err != nil {
		return fmt.Errorf("resolve database path %q: %w", path, err)
	}

	fsType, err := detect(probe)
	if err != nil {
		// Unknown platforms cannot be classified; let SQLite try.
		return nil
	}

	if isRemoteFilesystem(fsType) {
		return fmt.Errorf(
			"state path %q is on network filesystem %q; SQLite needs a local disk for locking. Point state.path at a local file",
			path,
			fsType,
		)
	}
	return nil
}

func closestExistingAncestor(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	for candidate := absPath; ; {
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}

		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", fmt.Errorf("no existing parent for %q", absPath)
		}
		candidate = parent
	}
}

func isRemoteFilesystem(fsType string) bool {
	_, found := remoteFilesystems[strings.ToLower(strings.TrimSpace(fsType))]
	return found
}
