package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FillDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{}.FillDefaults()

	assert.Equal(500, cfg.Engine.MaxStackDepth)
	assert.Equal(500, cfg.Engine.MaxLookahead)
	assert.Equal(":8080", cfg.Server.BindAddress)
	assert.NotEmpty(cfg.Server.JWTSecret)
	assert.NotZero(cfg.Stream.MaxBufSize)
	assert.NotEmpty(cfg.SQLite.DataDir)
}

func Test_FillDefaults_PreservesSetFields(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{Engine: Engine{MaxStackDepth: 10}}.FillDefaults()
	assert.Equal(10, cfg.Engine.MaxStackDepth)
	assert.Equal(500, cfg.Engine.MaxLookahead)
}

func Test_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults are valid", cfg: Config{}.FillDefaults(), wantErr: false},
		{name: "zero stack depth", cfg: Config{}.FillDefaults(), wantErr: true},
	}
	testCases[1].cfg.Engine.MaxStackDepth = 0

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_Validate_RejectsShortSecret(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{}.FillDefaults()
	cfg.Server.JWTSecret = "too-short"
	assert.Error(cfg.Validate())
}

func Test_Load_ReadsTOMLAndFillsDefaults(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "gzl.toml")
	contents := "[engine]\nmax_stack_depth = 42\n"
	assert.NoError(os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	assert.NoError(err)
	assert.Equal(42, cfg.Engine.MaxStackDepth)
	assert.Equal(500, cfg.Engine.MaxLookahead)
}
