package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip builds a zip file from name -> content pairs, in order.
func writeZip(t *testing.T, entries [][2]string) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "upload.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, entry := range entries {
		ew, err := w.Create(entry[0])
		require.NoError(t, err)
		_, err = ew.Write([]byte(entry[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return zipPath
}

func TestExtract_ManifestAndAssets(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"project.json", `{"name":"Pong","lang_id":"sb3"}`},
		{"costume1.svg", "<svg/>"},
		{"sound.wav", "RIFF"},
	})

	result, err := Extract(zipPath)
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"Pong","lang_id":"sb3"}`, string(result.Manifest))
	require.Len(t, result.Assets, 2)
	assert.Equal(t, "costume1.svg", result.Assets[0].Name)
	assert.Equal(t, "<svg/>", string(result.Assets[0].Data))
}

func TestExtract_ManifestOnly(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"project.json", `{}`},
	})

	result, err := Extract(zipPath)
	require.NoError(t, err)
	assert.Empty(t, result.Assets)
}

func TestExtract_MissingManifest(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"costume1.svg", "<svg/>"},
	})

	_, err := Extract(zipPath)
	assert.ErrorIs(t, err, ErrMissingManifest)
}

func TestExtract_EmptyArchive(t *testing.T) {
	zipPath := writeZip(t, nil)

	_, err := Extract(zipPath)
	assert.ErrorIs(t, err, ErrMissingManifest)
}

func TestExtract_UndecodableManifest(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"project.json", `{not json`},
	})

	_, err := Extract(zipPath)
	assert.ErrorIs(t, err, ErrMissingManifest)
}

func TestExtract_ManifestInSubdirectory(t *testing.T) {
	// Matched by base name regardless of directory.
	zipPath := writeZip(t, [][2]string{
		{"nested/project.json", `{"lang_id":"sb3"}`},
	})

	result, err := Extract(zipPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lang_id":"sb3"}`, string(result.Manifest))
}

func TestExtract_ManifestTooLarge(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"project.json", strings.Repeat("a", MaxManifestSize+1)},
	})

	_, err := Extract(zipPath)
	var tooLarge *TooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "project.json", tooLarge.Name)
}

func TestExtract_AssetTooLarge(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"project.json", `{}`},
		{"big.bin", strings.Repeat("a", MaxAssetSize+1)},
	})

	_, err := Extract(zipPath)
	var tooLarge *TooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "big.bin", tooLarge.Name)
}

func TestExtract_StripsDirectories(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"project.json", `{}`},
		{"assets/deep/costume1.svg", "first"},
		{"../../../etc/evil.svg", "traversal"},
	})

	result, err := Extract(zipPath)
	require.NoError(t, err)

	names := []string{}
	for _, a := range result.Assets {
		names = append(names, a.Name)
	}
	assert.ElementsMatch(t, []string{"costume1.svg", "evil.svg"}, names)
}

func TestExtract_BaseNameCollisionFirstWins(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"project.json", `{}`},
		{"a/costume1.svg", "first"},
		{"b/costume1.svg", "second"},
	})

	result, err := Extract(zipPath)
	require.NoError(t, err)
	require.Len(t, result.Assets, 1)
	assert.Equal(t, "first", string(result.Assets[0].Data))
}

func TestExtract_SkipsDirectoryEntries(t *testing.T) {
	zipPath := writeZip(t, [][2]string{
		{"assets/", ""},
		{"project.json", `{}`},
	})

	result, err := Extract(zipPath)
	require.NoError(t, err)
	assert.Empty(t, result.Assets)
}

func TestExtract_NotAZip(t *testing.T) {
	notZip := filepath.Join(t.TempDir(), "upload.zip")
	require.NoError(t, os.WriteFile(notZip, []byte("plain text"), 0o644))

	_, err := Extract(notZip)
	assert.Error(t, err)
}
