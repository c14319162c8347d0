package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skillsnap/internal/types"
)

func TestHandleOutput(t *testing.T) {
	report := &types.SkillsReport{Skills: []string{"go", "sql"}, VocabularyVersion: "test"}

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		oh := NewOutputHandler(nil)
		oh.stdout = &buf

		if err := oh.HandleOutput(report, CommandConfig{OutputFormat: "text"}); err != nil {
			t.Fatalf("HandleOutput failed: %v", err)
		}
		if !strings.Contains(buf.String(), "- sql") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out", "skills.json")
		oh := NewOutputHandler(nil)

		if err := oh.HandleOutput(report, CommandConfig{OutputFile: out, OutputFormat: "json"}); err != nil {
			t.Fatalf("HandleOutput failed: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"vocabulary_version": "test"`) {
			t.Errorf("unexpected file content %q", data)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		oh := NewOutputHandler(nil)
		err := oh.HandleOutput(report, CommandConfig{OutputFormat: "xml"})
		if err == nil || !strings.Contains(err.Error(), "INVALID_FORMAT") {
			t.Errorf("expected INVALID_FORMAT error, got %v", err)
		}
	})
}
