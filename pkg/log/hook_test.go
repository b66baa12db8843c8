package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestEntry(level Level, msg string) *Entry {
	entry := logrus.NewEntry(logrus.New())
	entry.Level = level
	entry.Message = msg
	entry.Time = time.Now()
	return entry
}

func TestHook_Fire_LevelRouting(t *testing.T) {
	tests := []struct {
		name         string
		level        Level
		wantMain     bool
		wantCritical bool
	}{
		{"Info는 Main에만 기록", InfoLevel, true, false},
		{"Warn은 Main에만 기록", WarnLevel, true, false},
		{"Error는 Main과 Critical에 모두 기록", ErrorLevel, true, true},
		{"Fatal은 Main과 Critical에 모두 기록", FatalLevel, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mainBuf, criticalBuf bytes.Buffer
			h := &hook{
				mainWriter:     &mainBuf,
				criticalWriter: &criticalBuf,
				formatter:      &logrus.TextFormatter{DisableColors: true},
			}

			err := h.Fire(newTestEntry(tt.level, "routing test"))
			assert.NoError(t, err)

			assert.Equal(t, tt.wantMain, mainBuf.Len() > 0)
			assert.Equal(t, tt.wantCritical, criticalBuf.Len() > 0)
		})
	}
}

func TestHook_Fire_ConsoleReceivesAllLevels(t *testing.T) {
	var mainBuf, consoleBuf bytes.Buffer
	h := &hook{
		mainWriter:    &mainBuf,
		consoleWriter: &consoleBuf,
		formatter:     &logrus.TextFormatter{DisableColors: true},
	}

	assert.NoError(t, h.Fire(newTestEntry(DebugLevel, "debug message")))
	assert.NoError(t, h.Fire(newTestEntry(ErrorLevel, "error message")))

	assert.Contains(t, consoleBuf.String(), "debug message")
	assert.Contains(t, consoleBuf.String(), "error message")
}

func TestHook_Fire_AfterClose(t *testing.T) {
	var mainBuf bytes.Buffer
	h := &hook{
		mainWriter: &mainBuf,
		formatter:  &logrus.TextFormatter{DisableColors: true},
	}

	assert.NoError(t, h.Close())

	// 종료 이후의 로그는 기록되지 않아야 합니다.
	assert.NoError(t, h.Fire(newTestEntry(InfoLevel, "after close")))
	assert.Zero(t, mainBuf.Len())
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"정상 설정", Options{Name: "nf-data-crawler"}, false},
		{"Name 누락", Options{}, true},
		{"음수 MaxAge", Options{Name: "app", MaxAge: -1}, true},
		{"음수 MaxSizeMB", Options{Name: "app", MaxSizeMB: -1}, true},
		{"음수 MaxBackups", Options{Name: "app", MaxBackups: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
