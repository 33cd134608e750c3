package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a text logger writing to out at the given level. An unknown
// level falls back to info.
func New(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// ToFile returns a logger appending to path together with the file handle,
// which the caller closes on exit.
func ToFile(level, path string) (*logrus.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return New(level, f), f, nil
}

// Discard is a logger that drops everything. Tests use it.
func Discard() *logrus.Logger {
	return New("panic", io.Discard)
}
