package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Unknown levels fall back to info.
func New(level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	log := &logrus.Logger{
		Out:   out,
		Hooks: make(logrus.LevelHooks),
		Formatter: &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		},
		Level:    logrus.InfoLevel,
		ExitFunc: os.Exit,
	}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	return New("panic", io.Discard)
}

// Component returns an entry tagged with the component name.
func Component(log logrus.FieldLogger, name string) *logrus.Entry {
	if log == nil {
		log = Discard()
	}
	return log.WithField("component", name)
}

// ConfigureStandard applies log's level, formatter and output to the logrus
// standard logger, which the HTTP handlers log through.
func ConfigureStandard(log *logrus.Logger) {
	std := logrus.StandardLogger()
	std.SetLevel(log.GetLevel())
	std.SetFormatter(log.Formatter)
	std.SetOutput(log.Out)
}
