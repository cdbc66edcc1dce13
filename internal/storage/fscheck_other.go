//go:build !darwin && !linux

package storage

import "errors"

func detectFilesystemType(string) (string, error) {
	return "", errors.New("filesystem type detection unsupported on this platform")
}
