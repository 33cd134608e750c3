package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"nonsense", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.in, &bytes.Buffer{}).GetLevel())
		})
	}
}

func TestToFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, f, err := ToFile("info", path)
	require.NoError(t, err)
	log.WithField("resource", "status").Info("poll ok")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll ok")
	assert.Contains(t, string(data), "resource=status")
}
