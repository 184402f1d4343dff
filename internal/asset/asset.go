// Package asset packages bundled lambdas into content-addressed zip files
// and publishes them to an S3-compatible bucket.
package asset

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"
)

// ManifestFile is the manifest name written next to the assets.
const ManifestFile = "assets.json"

// zipEpoch is the modification time of every zip entry.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Asset is a packaged zip.
type Asset struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
	// Key is the object key the template points Lambda code at.
	Key  string `json:"key"`
	Path string `json:"path,omitempty"`
	Size int64  `json:"size"`
}

// Entry is one file placed in a zip.
type Entry struct {
	// Name is the slash-separated path inside the zip.
	Name string
	// Source is the file on disk.
	Source string
	// Executable entries get mode 0755, others 0644.
	Executable bool
}

// Packager turns entries into an Asset.
type Packager interface {
	Package(name string, entries []Entry) (Asset, error)
}

// ZipPackager writes asset.<hash>.zip files into OutDir. With an empty
// OutDir the zip is only hashed.
type ZipPackager struct {
	OutDir string
}

// Package builds a deterministic zip of entries. Entries are sorted by name
// and carry a fixed timestamp, so identical inputs hash identically.
func (p ZipPackager) Package(name string, entries []Entry) (Asset, error) {
	data, err := Zip(entries)
	if err != nil {
		return Asset{}, fmt.Errorf("packaging %s: %w", name, err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	a := Asset{
		Name: name,
		Hash: hash,
		Key:  hash + ".zip",
		Size: int64(len(data)),
	}

	if p.OutDir != "" {
		if err := os.MkdirAll(p.OutDir, 0755); err != nil {
			return Asset{}, fmt.Errorf("packaging %s: %w", name, err)
		}
		a.Path = filepath.Join(p.OutDir, "asset."+hash+".zip")
		if err := os.WriteFile(a.Path, data, 0644); err != nil {
			return Asset{}, fmt.Errorf("packaging %s: %w", name, err)
		}
	}
	return a, nil
}

// Zip returns the zip archive of entries.
func Zip(entries []Entry) ([]byte, error) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, e := range sorted {
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("duplicate zip entry %s", e.Name)
		}
		if err := addEntry(zw, e); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addEntry(zw *zip.Writer, e Entry) error {
	f, err := os.Open(e.Source)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := &zip.FileHeader{
		Name:     e.Name,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	if e.Executable {
		hdr.SetMode(0755)
	} else {
		hdr.SetMode(0644)
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// DirEntries lists the regular files under dir as entries named
// prefix/<relative path>. Files with any execute bit stay executable.
func DirEntries(dir, prefix string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Name:       path.Join(prefix, filepath.ToSlash(rel)),
			Source:     p,
			Executable: info.Mode()&0111 != 0,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Manifest lists the assets of one build.
type Manifest struct {
	Assets []Asset `json:"assets"`
}

// Add appends a, skipping assets whose key is already listed.
func (m *Manifest) Add(a Asset) {
	for _, existing := range m.Assets {
		if existing.Key == a.Key {
			return
		}
	}
	m.Assets = append(m.Assets, a)
}

// Write stores the manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ReadManifest loads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &m, nil
}
