package util

import (
	"strings"
	"testing"
)

func TestWrapString(t *testing.T) {
	text := "Root directory of the store (default ~/.fkv/data, or the temp directory if the home directory is not writable)"
	wrapped := WrapString(text)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
	if strings.Join(strings.Fields(wrapped), " ") != text {
		t.Errorf("Expected wrapping to keep all words, got %q", wrapped)
	}
	if WrapString("") != "" {
		t.Errorf("Expected empty string to stay empty")
	}
}
