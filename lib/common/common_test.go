package common

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logger.LogLevel
		wantErr bool
	}{
		{"debug", logger.DEBUG, false},
		{"INFO", logger.INFO, false},
		{"warn", logger.WARNING, false},
		{"warning", logger.WARNING, false},
		{" error ", logger.ERROR, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if err := InitLoggers("loud"); err == nil {
		t.Errorf("Expected InitLoggers to reject an invalid level")
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := &fKVLogger{name: "store", level: logger.INFO, logger: log.New(&buf, "", 0)}

	l.Debugf("hidden %d", 1)
	l.Infof("opened %s", "root")
	l.Warningf("careful")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug output to be filtered, got %q", out)
	}
	if !strings.Contains(out, "INFO  | store  | opened root") || !strings.Contains(out, "WARN  | store  | careful") {
		t.Errorf("Unexpected log output %q", out)
	}

	l.SetLevel(logger.ERROR)
	buf.Reset()
	l.Warningf("quiet")
	if buf.Len() != 0 {
		t.Errorf("Expected warnings to be filtered at error level, got %q", buf.String())
	}
}

func TestStoreConfigString(t *testing.T) {
	c := &StoreConfig{Path: "/tmp/data", Compression: "zstd", LockSlots: 256, LogLevel: "info"}
	out := c.String()
	for _, want := range []string{"STORE", "/tmp/data", "zstd", "json", "256", "LOGGING", "info"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in config output:\n%s", want, out)
		}
	}
}
