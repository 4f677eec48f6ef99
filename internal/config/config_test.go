package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "templates/**/*.html", cfg.Templates.Glob)
	assert.Equal(t, "/_snapfire/ws", cfg.Reload.WSPath)
	assert.True(t, cfg.Reload.AutoInject)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("server.port", 8080)
	viper.Set("server.host", "0.0.0.0")
	viper.Set("templates.glob", "views/**/*.tera")
	viper.Set("reload.ws_path", "/dev/ws")
	viper.Set("reload.auto_inject", false)
	viper.Set("reload.static_dirs", []string{"assets", "public/css"})
	viper.Set("log.level", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "views/**/*.tera", cfg.Templates.Glob)
	assert.Equal(t, "/dev/ws", cfg.Reload.WSPath)
	assert.False(t, cfg.Reload.AutoInject)
	assert.Equal(t, []string{"assets", "public/css"}, cfg.Reload.StaticDirs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	resetViper(t)
	viper.Set("server.port", 70000)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestLoadRejectsDangerousHost(t *testing.T) {
	resetViper(t)
	viper.Set("server.host", "localhost;rm -rf /")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangerous character")
}

func TestLoadRejectsTraversalStaticDir(t *testing.T) {
	resetViper(t)
	viper.Set("reload.static_dirs", []string{"../../etc"})

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traversal")
}

func TestLoadRejectsRelativeWSPath(t *testing.T) {
	resetViper(t)
	viper.Set("reload.ws_path", "no-leading-slash")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ws_path")
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"simple dir", "static", false},
		{"nested dir", "public/css", false},
		{"empty", "", true},
		{"traversal", "../secrets", true},
		{"shell metachar", "static;ls", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
