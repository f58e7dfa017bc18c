package dupfind

import (
	"bytes"
	"strings"
	"testing"
)

func captureLog(t *testing.T, level int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldLevel := GetVerboseLevel()
	SetLogOutput(&buf)
	SetVerboseLevel(level)
	t.Cleanup(func() {
		SetLogOutput(nil)
		SetVerboseLevel(oldLevel)
	})
	return &buf
}

func TestVerboseLogLevels(t *testing.T) {
	buf := captureLog(t, 1)

	VerboseLog(1, "basic %d", 1)
	VerboseLog(2, "detailed %d", 2)
	Warnf("careful")

	out := buf.String()
	if !strings.Contains(out, "basic 1") {
		t.Errorf("Expected level 1 message in output:\n%s", out)
	}
	if strings.Contains(out, "detailed") {
		t.Errorf("Level 2 message should be suppressed at level 1:\n%s", out)
	}
	if !strings.Contains(out, "careful") || !strings.Contains(out, "level=warning") {
		t.Errorf("Expected warning in output:\n%s", out)
	}
}

func TestVerboseEnterTrace(t *testing.T) {
	buf := captureLog(t, 3)

	func() {
		defer VerboseEnter()()
	}()

	out := buf.String()
	if !strings.Contains(out, "msg=enter") || !strings.Contains(out, "msg=exit") {
		t.Errorf("Expected enter and exit trace lines:\n%s", out)
	}
}

func TestVerboseEnterQuiet(t *testing.T) {
	buf := captureLog(t, 0)

	func() {
		defer VerboseEnter()()
	}()
	VerboseLog(1, "hidden")

	if buf.Len() != 0 {
		t.Errorf("Expected no output at level 0, got:\n%s", buf.String())
	}
}

func TestDebugFlags(t *testing.T) {
	t.Cleanup(func() { SetDebugFlags("") })

	SetDebugFlags("walk, HASH:yes ,trash:off,")
	if !IsDebugEnabled("walk") {
		t.Error("Expected walk flag to be enabled")
	}
	if !IsDebugEnabled("hash") {
		t.Error("Expected hash flag to be enabled (case insensitive)")
	}
	if IsDebugEnabled("trash") {
		t.Error("Expected trash flag to be disabled")
	}
	if IsDebugEnabled("unknown") {
		t.Error("Unset flags must be disabled")
	}

	SetDebugFlags("")
	if IsDebugEnabled("walk") {
		t.Error("Expected flags to be cleared")
	}
}

func TestLogDebugFlags(t *testing.T) {
	buf := captureLog(t, 1)
	t.Cleanup(func() { SetDebugFlags("") })

	SetDebugFlags("walk,hash:off")
	LogDebugFlags()

	out := buf.String()
	if !strings.Contains(out, "debug flags enabled: walk") || strings.Contains(out, "hash") {
		t.Errorf("Unexpected debug flag log:\n%s", out)
	}
}
