package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckLocalFilesystemAllowsLocal(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "pushbridge.db")
	err := checkLocalFilesystemWith(dbPath, func(string) (string, error) {
		return "apfs", nil
	})
	if err != nil {
		t.Fatalf("expected local filesystem to pass, got: %v", err)
	}
}

func TestCheckLocalFilesystemRejectsRemote(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "pushbridge.db")
	err := checkLocalFilesystemWith(dbPath, func(string) (string, error) {
		return "nfs", nil
	})
	if err == nil {
		t.Fatal("expected network filesystem error")
	}
	for _, want := range []string{"nfs", "state.path"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to contain %q, got %q", want, err.Error())
		}
	}
}

func TestCheckLocalFilesystemProbesClosestAncestor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dbPath := filepath.Join(root, "nested", "dir", "pushbridge.db")

	var probed string
	err := checkLocalFilesystemWith(dbPath, func(path string) (string, error) {
		probed = path
		return "ext4", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probed != root {
		t.Fatalf("probed %q, want %q", probed, root)
	}
}

func TestCheckLocalFilesystemUndetectable(t *testing.T) {
	t.Parallel()

	err := checkLocalFilesystemWith(filepath.Join(t.TempDir(), "x.db"), func(string) (string, error) {
		return "", errors.New("unsupported")
	})
	if err != nil {
		t.Fatalf("undetectable filesystem should pass, got %v", err)
	}
}

func TestIsRemoteFilesystem(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fs   string
		want bool
	}{
		{fs: "nfs", want: true},
		{fs: " SMBFS ", want: true},
		{fs: "apfs", want: false},
		{fs: "0x6969", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.fs, func(t *testing.T) {
			t.Parallel()
			if got := isRemoteFilesystem(tc.fs); got != tc.want {
				t.Fatalf("isRemoteFilesystem(%q)=%v, want %v", tc.fs, got, tc.want)
			}
		})
	}
}
