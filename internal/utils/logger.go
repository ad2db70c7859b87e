package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// appNameHook prefixes every entry with the binary name so that the server
// and the operator CLI can share one log sink.
type appNameHook struct {
	appName string
}

// Levels implements logrus.Hook interface.
func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook interface.
func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

func InitLogger(appName string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetLevel(ParseLogLevel(os.Getenv("LOG_LEVEL")))
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	Logger.AddHook(&appNameHook{appName})
}

// ParseLogLevel maps LOG_LEVEL to a logrus level. Empty or unknown values
// fall back to info.
func ParseLogLevel(raw string) logrus.Level {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", raw)
		return logrus.InfoLevel
	}
	return level
}

// SubjectFields is the field set attached to every session log line.
func SubjectFields(subject, tokenID string) logrus.Fields {
	fields := logrus.Fields{"subject": subject}
	if tokenID != "" {
		fields["jti"] = tokenID
	}
	return fields
}
