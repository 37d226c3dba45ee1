package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineWKBHex is a two-point LineString (0 0, 1 1) encoded as
// little-endian WKB, hex-encoded.
const lineWKBHex = "010200000002000000000000000000000000000000000000000000000000f03f000000000000f03f"

func writeInput(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAcceptsValidRecords(t *testing.T) {
	body := `{"locations":[{"locationReference":"ab12","geometry":"` + lineWKBHex + `","category":"road","frc":2}]}`
	path := writeInput(t, body)

	jobs, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ab12", jobs[0].OLR)
	assert.Equal(t, 2, jobs[0].FRC)
	assert.Equal(t, "road", jobs[0].Category)
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	body := `{"locations":[
		{"locationReference":"","geometry":"` + lineWKBHex + `","category":"road","frc":2},
		{"locationReference":"ab12","geometry":"not-hex","category":"road","frc":2},
		{"locationReference":"cd34","geometry":"` + lineWKBHex + `","category":"road","frc":9},
		{"locationReference":"ef56","geometry":"` + lineWKBHex + `","category":"road","frc":3}
	]}`
	path := writeInput(t, body)

	jobs, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ef56", jobs[0].OLR)
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := writeInput(t, `{not json`)
	_, err := Load(path, nil)
	assert.Error(t, err)
}
