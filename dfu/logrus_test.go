package dfu

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	l := NewLogrusLogger(log)

	l.Info("upgrade start", "session", "abc", "mode", "confirm_only")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "upgrade start", entry.Message)
	assert.Equal(t, "abc", entry.Data["session"])
	assert.Equal(t, "confirm_only", entry.Data["mode"])

	l.Error("odd", "key")
	assert.Equal(t, "key", hook.LastEntry().Data["!BADKEY"])
}

func TestOrchestratorLogs(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	o, factory, obs := newTestOrchestrator(t, WithLogger(NewLogrusLogger(log)))
	obs.On("UpgradeDidComplete").Once()

	require.NoError(t, o.Upgrade(context.Background(), writeImage(t)))
	factory.Last().Complete()

	var messages []string
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logCategory, e.Data["category"])
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "session started")
	assert.Contains(t, messages, "source resolved")
	assert.Contains(t, messages, "upgrade start")
	assert.Contains(t, messages, "upgrade completed")
}

func TestOrchestratorLogsParseFailure(t *testing.T) {
	log, hook := test.NewNullLogger()

	o, _, obs := newTestOrchestrator(t, WithLogger(NewLogrusLogger(log)))
	obs.On("UpgradeDidFail", mock.Anything, mock.Anything).Once()

	require.Error(t, o.Load(context.Background(), "missing.zip"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "parse failure", entry.Message)
	assert.Equal(t, "i/o failure", entry.Data["kind"])
}
