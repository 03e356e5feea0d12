package dfu

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	l logrus.FieldLogger
}

// NewLogrusLogger adapts a logrus logger to Logger. Key-value pairs become
// logrus fields.
//
// Example:
//
//	log := logrus.New()
//	log.SetLevel(logrus.DebugLevel)
//	o := dfu.New(transport, newEngine, dfu.WithLogger(dfu.NewLogrusLogger(log)))
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLogger{l: l}
}

func (l *logrusLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.WithFields(toFields(keysAndValues)).Info(msg)
}

func (l *logrusLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.WithFields(toFields(keysAndValues)).Error(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	if len(keysAndValues)%2 == 1 {
		fields["!BADKEY"] = keysAndValues[len(keysAndValues)-1]
	}
	return fields
}
