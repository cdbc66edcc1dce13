package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumsFile is the manifest written next to locked config files.
const ChecksumsFile = ".checksums"

const manifestVersion = 1

// ErrNotLocked reports a config directory without a checksum manifest.
var ErrNotLocked = errors.New("config is not locked (run 'pushbridge config lock')")

// LockedDir is the manifest Lock produced for one directory of the include tree.
type LockedDir struct {
	Dir      string
	Manifest string
	// Hashes maps file base names to hex BLAKE3 digests.
	Hashes  map[string]string
	Written bool
}

// Names returns the locked file names, sorted.
func (d *LockedDir) Names() []string {
	names := make([]string, 0, len(d.Hashes))
	for name := range d.Hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lock pins every file of the include tree rooted at configPath by writing
// one manifest per directory. With dryRun nothing is written.
func Lock(configPath string, dryRun bool) ([]*LockedDir, error) {
	files, err := DiscoverAllConfigFiles(configPath)
	if err != nil {
		return nil, err
	}

	byDir := groupByDir(files)
	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	locked := make([]*LockedDir, 0, len(dirs))
	for _, dir := range dirs {
		ld := &LockedDir{
			Dir:      dir,
			Manifest: filepath.Join(dir, ChecksumsFile),
			Hashes:   make(map[string]string, len(byDir[dir])),
		}
		for _, path := range byDir[dir] {
			digest, err := fileDigest(path)
			if err != nil {
				return nil, fmt.Errorf("hash %s: %w", path, err)
			}
			ld.Hashes[filepath.Base(path)] = digest
		}
		if !dryRun {
			if err := writeManifest(ld.Manifest, ld.Hashes); err != nil {
				return nil, err
			}
			ld.Written = true
		}
		locked = append(locked, ld)
	}
	return locked, nil
}

// ReadManifest loads the manifest of dir. A missing manifest is ErrNotLocked.
func ReadManifest(dir string) (*ChecksumManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ChecksumsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotLocked
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ChecksumsFile, err)
	}

	var m ChecksumManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ChecksumsFile, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported %s version %d", ChecksumsFile, m.Version)
	}
	return &m, nil
}

// verifyLocked checks every path against the manifest of its directory.
// Directories that were never locked are skipped.
func verifyLocked(paths []string) error {
	for dir, group := range groupByDir(paths) {
		m, err := ReadManifest(dir)
		if errors.Is(err, ErrNotLocked) {
			continue
		}
		if err != nil {
			return err
		}
		for _, path := range group {
			if err := m.check(path); err != nil {
				return fmt.Errorf("config verification failed for %s: %w\n"+
					"If you edited this file intentionally, run: pushbridge config lock --config %s", path, err, dir)
			}
		}
	}
	return nil
}

func (m *ChecksumManifest) check(path string) error {
	name := filepath.Base(path)
	want, ok := m.Hashes[name]
	if !ok {
		return fmt.Errorf("%s is not listed in %s", name, ChecksumsFile)
	}
	got, err := fileDigest(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("digest mismatch (locked %.12s, found %.12s)", want, got)
	}
	return nil
}

func fileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func writeManifest(path string, hashes map[string]string) error {
	data, err := yaml.Marshal(ChecksumManifest{
		Version:     manifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      hashes,
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ChecksumsFile, err)
	}
	// 0600: the manifest gates config loading.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func groupByDir(paths []string) map[string][]string {
	out := make(map[string][]string)
	for _, path := range paths {
		dir := filepath.Dir(path)
		out[dir] = append(out[dir], path)
	}
	return out
}
