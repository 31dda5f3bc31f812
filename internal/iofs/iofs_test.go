package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/config"
	"github.com/gnames/gnbold/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEnsureDirs(t *testing.T) {
	tmpDir := t.TempDir()

	// repeated calls do not fail
	for range 2 {
		err := EnsureDirs(tmpDir)
		require.NoError(t, err)
	}

	dirs := []string{
		filepath.Join(tmpDir, ".config", "gnbold"),
		filepath.Join(tmpDir, ".cache", "gnbold"),
		filepath.Join(tmpDir, ".local", "share", "gnbold"),
		filepath.Join(tmpDir, ".local", "share", "gnbold", "logs"),
	}
	for _, v := range dirs {
		info, err := os.Stat(v)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), v)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), v)
	}
}

func TestTouchDirError(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := touchDir(filepath.Join(file, "sub"))
	assert.Error(t, err)
}

func TestEnsureStoreDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bold", "2024", "gnbold.sqlite")

	for range 2 {
		require.NoError(t, EnsureStoreDir(path))
	}
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	file := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	err = EnsureStoreDir(filepath.Join(file, "gnbold.sqlite"))
	var gnErr *gn.Error
	require.ErrorAs(t, err, &gnErr)
	assert.Equal(t, errcode.StoreDirError, gnErr.Code)
}

func TestEnsureConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, EnsureDirs(tmpDir))

	err := EnsureConfigFile(tmpDir)
	require.NoError(t, err)

	path := config.ConfigFilePath(tmpDir)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ConfigYAML, string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	// existing file is kept
	custom := []byte("curation:\n  min_rank: genus\n")
	require.NoError(t, os.WriteFile(path, custom, 0644))
	require.NoError(t, EnsureConfigFile(tmpDir))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, content)
}

func TestEnsureConfigFileNoDir(t *testing.T) {
	err := EnsureConfigFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

// TestConfigYAML checks that the embedded file matches the defaults.
func TestConfigYAML(t *testing.T) {
	var cfg config.Config
	err := yaml.Unmarshal([]byte(ConfigYAML), &cfg)
	require.NoError(t, err)

	def := config.New()
	assert.Equal(t, def.Store, cfg.Store)
	assert.Equal(t, def.Database, cfg.Database)
	assert.Equal(t, def.Sequence, cfg.Sequence)
	assert.Equal(t, def.Collaborators, cfg.Collaborators)
	assert.Equal(t, def.GBIF, cfg.GBIF)
	assert.Equal(t, def.Classifier, cfg.Classifier)
	assert.Equal(t, def.Cache, cfg.Cache)
	assert.Equal(t, def.Log, cfg.Log)
	assert.Equal(t, "", cfg.Curation.MinRank)
	assert.Nil(t, cfg.Curation.LocationThreshold)
}
