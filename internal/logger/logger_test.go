package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Levels(t *testing.T) {
	t.Setenv("LOG_MODE", "")
	t.Setenv("LOG_FORMAT", "")

	tests := []struct {
		name string
		opts Options
		want logrus.Level
	}{
		{name: "default", opts: Options{}, want: logrus.InfoLevel},
		{name: "debug", opts: Options{Debug: true}, want: logrus.DebugLevel},
		{name: "quiet", opts: Options{Quiet: true}, want: logrus.ErrorLevel},
		{name: "debug wins over quiet", opts: Options{Debug: true, Quiet: true}, want: logrus.DebugLevel},
		{name: "explicit level", opts: Options{Level: "warn"}, want: logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Out = &bytes.Buffer{}
			log, err := Setup(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	t.Setenv("LOG_MODE", "")

	_, err := Setup(Options{Level: "loud", Out: &bytes.Buffer{}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestSetup_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_MODE", "quiet")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	log, err := Setup(Options{Debug: true, Out: &buf})
	require.NoError(t, err)

	assert.Equal(t, logrus.ErrorLevel, log.GetLevel())
	log.WithField("panel", "crm").Error("boom")
	assert.Contains(t, buf.String(), `"panel":"crm"`)
	assert.Contains(t, buf.String(), `"msg":"boom"`)
}

func TestSetup_TextUsesCLIFormatter(t *testing.T) {
	t.Setenv("LOG_MODE", "")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	log, err := Setup(Options{Out: &buf})
	require.NoError(t, err)

	log.WithField("panel", "ide").Info("task finished")
	assert.Equal(t, "INFO task finished panel=ide\n", buf.String())
}

func TestCLIFormatter_Format(t *testing.T) {
	f := &CLIFormatter{DisableColors: true}
	entry := &logrus.Entry{
		Time:    time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "retrying",
		Data:    logrus.Fields{"b": 2, "a": "x"},
	}

	out, err := f.Format(entry)

	require.NoError(t, err)
	assert.Equal(t, "15:04:05 WARN retrying a=x b=2\n", string(out))
}

func TestCLIFormatter_Colors(t *testing.T) {
	f := &CLIFormatter{DisableTimestamp: true}
	out, err := f.Format(&logrus.Entry{Level: logrus.ErrorLevel, Message: "x"})

	require.NoError(t, err)
	assert.Contains(t, string(out), "\x1b[31mERRO\x1b[0m x")
}
