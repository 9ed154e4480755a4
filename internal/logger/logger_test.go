package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	tests := []struct {
		name    string
		want    logrus.Level
		wantErr bool
	}{
		{"debug", logrus.DebugLevel, false},
		{" WARN ", logrus.WarnLevel, false},
		{"", logrus.InfoLevel, false},
		{"error", logrus.ErrorLevel, false},
		{"chatty", logrus.ErrorLevel, true},
	}

	for _, tt := range tests {
		err := SetLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Fatalf("SetLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if Logger.GetLevel() != tt.want {
			t.Errorf("SetLevel(%q): expected level %s, got %s", tt.name, tt.want, Logger.GetLevel())
		}
	}
}

func TestWithFieldsWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	out := Logger.Out
	Logger.SetOutput(&buf)
	defer Logger.SetOutput(out)

	WithFields(logrus.Fields{"risk_level": "HIGH", "score": 7}).Info("analysis completed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "analysis completed" || entry["risk_level"] != "HIGH" {
		t.Errorf("Unexpected entry %v", entry)
	}
}
