package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel(INFO)

	SetLevel(DEBUG)
	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
	SetLevel(ERROR)
	assert.Equal(t, logrus.ErrorLevel, GetLogger().GetLevel())
	SetLevel(LogLevel(99)) // unknown levels fall back to info
	assert.Equal(t, logrus.InfoLevel, GetLogger().GetLevel())
}

func TestLogBlockEventRespectsLevel(t *testing.T) {
	orig := GetLogger().Out
	var buf bytes.Buffer
	GetLogger().SetOutput(&buf)
	defer GetLogger().SetOutput(orig)
	defer SetLevel(INFO)

	SetLevel(DEBUG)
	LogBlockEvent(7, "abcd1234", 2, "canonical")
	out := buf.String()
	assert.Contains(t, out, "abcd1234")
	assert.Contains(t, out, "canonical")

	// Block events are debug-only noise, silent at higher levels.
	buf.Reset()
	SetLevel(ERROR)
	LogBlockEvent(8, "ef015678", 0, "fork")
	assert.Empty(t, buf.String())
}

func TestLogForkEventAtInfo(t *testing.T) {
	orig := GetLogger().Out
	var buf bytes.Buffer
	GetLogger().SetOutput(&buf)
	defer GetLogger().SetOutput(orig)
	defer SetLevel(INFO)

	SetLevel(INFO)
	LogForkEvent(5)
	assert.Contains(t, buf.String(), "fork_number=5")
}
