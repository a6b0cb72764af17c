package memo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/fKV/lib/memo"
)

func TestKeyCommand(t *testing.T) {
	var out bytes.Buffer
	MemoCommands.SetOut(&out)
	MemoCommands.SetArgs([]string{"key", "inc", "5"})
	if err := MemoCommands.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected, err := memo.KeyFor("inc", 5, "json")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}

	for _, arg := range []string{"5", "5.0", "5e0"} {
		out.Reset()
		MemoCommands.SetArgs([]string{"key", "inc", arg})
		if err := MemoCommands.Execute(); err != nil {
			t.Fatalf("Unexpected error for %s: %v", arg, err)
		}
		floatKey, _ := memo.KeyFor("inc", 5.0, "json")
		if got := strings.TrimSpace(out.String()); got != floatKey || got != expected {
			t.Errorf("Expected %s for %s, got %s", floatKey, arg, got)
		}
	}

	MemoCommands.SetArgs([]string{"key", "inc", "{not json"})
	if err := MemoCommands.Execute(); err == nil {
		t.Errorf("Expected invalid json args to fail")
	}
}
