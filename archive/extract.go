// Package archive validates and unpacks uploaded project archives.
// An archive is a zip container holding exactly one project.json
// manifest plus any number of asset files.
package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	// ManifestName is the required manifest entry, matched by base name.
	ManifestName = "project.json"

	// MaxManifestSize caps the decompressed manifest entry.
	MaxManifestSize = 10 << 20
	// MaxAssetSize caps every decompressed non-manifest entry.
	MaxAssetSize = 15 << 20
)

// ErrMissingManifest means the archive had no decodable project.json.
var ErrMissingManifest = errors.New("archive must contain project.json")

// TooLargeError reports an entry over its decompressed size limit.
type TooLargeError struct {
	Name  string
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s exceeds %dMB limit", e.Name, e.Limit>>20)
}

// Asset is one non-manifest entry, reduced to its base name.
type Asset struct {
	Name string
	Data []byte
}

// Result is a fully validated archive.
type Result struct {
	Manifest json.RawMessage
	Assets   []Asset
}

// Extract opens the zip at zipPath and walks its entries. Directory
// entries are skipped. Entry names are reduced to their base name, so
// directory components (including any ../ traversal) never reach the
// filesystem. When two entries collide on base name the first wins.
func Extract(zipPath string) (*Result, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	result := &Result{}
	seen := make(map[string]bool)

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		name := baseName(entry.Name)
		if name == "" {
			continue
		}

		if name == ManifestName {
			data, err := readEntry(entry, MaxManifestSize)
			if err != nil {
				return nil, err
			}
			var probe json.RawMessage
			if err := json.Unmarshal(data, &probe); err != nil {
				return nil, ErrMissingManifest
			}
			result.Manifest = probe
			continue
		}

		data, err := readEntry(entry, MaxAssetSize)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		result.Assets = append(result.Assets, Asset{Name: name, Data: data})
	}

	if result.Manifest == nil {
		return nil, ErrMissingManifest
	}
	return result, nil
}

// readEntry decompresses one entry, enforcing limit on the actual
// decompressed bytes rather than trusting the zip header.
func readEntry(entry *zip.File, limit int64) ([]byte, error) {
	if int64(entry.UncompressedSize64) > limit {
		return nil, &TooLargeError{Name: baseName(entry.Name), Limit: limit}
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", entry.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, &TooLargeError{Name: baseName(entry.Name), Limit: limit}
	}
	return data, nil
}

// baseName strips directory components from a zip entry name. Zip
// names use forward slashes, but archives produced on Windows show up
// with backslashes often enough to normalize them too.
func baseName(entryName string) string {
	name := path.Base(strings.ReplaceAll(entryName, `\`, "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
