package passphrase

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testSource(env map[string]string, terminal bool, secret string, readErr error) (*Source, *bytes.Buffer) {
	prompt := &bytes.Buffer{}
	s := NewSource("BRIDGE_KEY_PASS", "operator passphrase")
	s.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	s.isTerminal = func() bool { return terminal }
	s.readSecret = func() ([]byte, error) { return []byte(secret), readErr }
	s.prompt = prompt
	return s, prompt
}

func TestSourcePrefersEnvironment(t *testing.T) {
	s, prompt := testSource(map[string]string{"BRIDGE_KEY_PASS": "hunter2"}, true, "ignored", nil)
	got, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("unexpected passphrase %q", got)
	}
	if prompt.Len() != 0 {
		t.Fatalf("expected no prompt, got %q", prompt.String())
	}
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	s, _ := testSource(map[string]string{"BRIDGE_KEY_PASS": "  "}, true, "x", nil)
	if _, err := s.Get(); err == nil {
		t.Fatalf("expected error for blank env value")
	}
}

func TestSourcePromptsOnTerminal(t *testing.T) {
	s, prompt := testSource(nil, true, "typed", nil)
	got, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "typed" {
		t.Fatalf("unexpected passphrase %q", got)
	}
	if !strings.Contains(prompt.String(), "operator passphrase") {
		t.Fatalf("prompt missing label: %q", prompt.String())
	}
}

func TestSourceWithoutTerminal(t *testing.T) {
	s, _ := testSource(nil, false, "", nil)
	_, err := s.Get()
	if err == nil || !strings.Contains(err.Error(), "BRIDGE_KEY_PASS") {
		t.Fatalf("expected hint about env var, got %v", err)
	}
}

func TestSourceCachesResult(t *testing.T) {
	calls := 0
	s, _ := testSource(nil, true, "", nil)
	s.readSecret = func() ([]byte, error) {
		calls++
		return nil, errors.New("tty closed")
	}
	if _, err := s.Get(); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := s.Get(); err == nil {
		t.Fatalf("expected cached error")
	}
	if calls != 1 {
		t.Fatalf("expected one read, got %d", calls)
	}
}
