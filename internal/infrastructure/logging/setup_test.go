package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})

	t.Run("writes to rotating file", func(t *testing.T) {
		dir := t.TempDir()

		closer, err := Setup(Options{Name: "test", Level: "debug", Dir: dir})
		require.NoError(t, err)
		defer closer.Close()

		WithComponent("catalog.ingest").Debug("hello")

		data, err := os.ReadFile(filepath.Join(dir, "test.log"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello")
		assert.Contains(t, string(data), "component=catalog.ingest")
		assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := Setup(Options{Name: "test", Level: "loud", Dir: t.TempDir()})
		assert.Error(t, err)
	})

	t.Run("defaults to info", func(t *testing.T) {
		closer, err := Setup(Options{Dir: t.TempDir()})
		require.NoError(t, err)
		defer closer.Close()

		assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	})
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	WithComponentAndFields("api", Fields{"path": "/health"}).Info("request")

	assert.Contains(t, buf.String(), "component=api")
	assert.Contains(t, buf.String(), "path=/health")
}
