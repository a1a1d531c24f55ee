package logger

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oidfed/gatehouse/cmd/gatehouse/config"
)

func TestConfigureFiles(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(
		func() {
			log.SetOutput(os.Stderr)
			log.SetLevel(log.InfoLevel)
		},
	)

	require.NoError(t, configure("debug", config.LoggerConf{Dir: dir}, config.LoggerConf{Dir: dir}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	log.WithField("username", "alice").Warn("failed login")
	_, err := AccessWriter().Write([]byte("GET /health 200\n"))
	require.NoError(t, err)

	internal, err := os.ReadFile(filepath.Join(dir, internalLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(internal), "failed login")
	assert.Contains(t, string(internal), "username=alice")

	access, err := os.ReadFile(filepath.Join(dir, accessLogFile))
	require.NoError(t, err)
	assert.Equal(t, "GET /health 200\n", string(access))
}

func TestConfigureErrors(t *testing.T) {
	assert.Error(t, configure("loud", config.LoggerConf{}, config.LoggerConf{}))
	assert.Error(t, configure("info", config.LoggerConf{Dir: "/does/not/exist"}, config.LoggerConf{}))
}
