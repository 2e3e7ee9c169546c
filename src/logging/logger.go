package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// New builds the process logger. level is a logrus level name; format is
// "json" or "text".
func New(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT.
func FromEnv() *logrus.Logger {
	return New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), nil)
}

// Gorm routes gorm's logger through l at warn level: slow queries and
// errors only, record-not-found ignored.
func Gorm(l *logrus.Logger) logger.Interface {
	return logger.New(
		log.New(l.WriterLevel(logrus.WarnLevel), "", 0),
		logger.Config{SlowThreshold: time.Second, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true, Colorful: false},
	)
}
