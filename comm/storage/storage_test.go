package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/hollysys/plc-comm-forge/comm/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadProfilesRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)

	profiles := []model.ConnectionProfile{{ChannelName: "ch1", ReadArea: model.ReadAreaHolding, StartAddress: 0, Length: 10}}
	require.NoError(t, s.SaveProfiles(profiles))

	loaded, ok, err := s.LoadProfiles()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profiles, loaded)

	assert.FileExists(t, filepath.Join(dir, "profiles.v1.json"))
}

func TestLoadMissingDocumentReturnsNotFoundNotError(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)

	_, ok, err := s.LoadPoints()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadRejectsWrongSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)

	require.NoError(t, s.SavePoints(nil))

	// Corrupt the schema_version field directly.
	path := filepath.Join(dir, "points.v1.json")
	raw := []byte(`{"schemaVersion": 2, "points": []}`)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, _, err := s.LoadPoints()
	require.Error(t, err)
	var se *storage.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, storage.ErrUnsupportedSchemaVersion, se.Kind)
}

func TestSaveConfigAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)

	require.NoError(t, s.SaveConfig(storage.ConfigDoc{OutputDir: "/var/data"}))

	loaded, ok, err := s.LoadConfig()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/var/data", loaded.OutputDir)
}

func TestSaveRunLastResultsArchivesUnderRunID(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir)

	doc := storage.LastResultsDoc{Stats: model.RunStats{Total: 1, Ok: 1}}
	require.NoError(t, s.SaveRunLastResults("run-42", doc))

	loaded, ok, err := s.LoadRunLastResults("run-42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, loaded.Stats.Total)
	assert.FileExists(t, filepath.Join(dir, "runs", "run-42", "last_results.v1.json"))
}
