package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const checkConfig = `telegram:
  token: "123:abc"
  chat_id: 42
random:
  provider: local
reminders:
  - name: water
    messages: ["Попей воды", "Стакан воды"]
    interval: [30, 90]
`

func TestCheckCommandListsProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(checkConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", path, "check"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("check failed: %v\n%s", err, out.String())
	}

	got := out.String()
	for _, want := range []string{"chat_id:   42", "provider:  local", "storage:   config", "water", "30-90", "Попей воды; Стакан воды"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "123:abc") {
		t.Fatal("token must not be printed")
	}
}

func TestCheckCommandRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	bad := strings.Replace(checkConfig, "[30, 90]", "[90, 30]", 1)
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", path, "check"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected validation error, output:\n%s", out.String())
	}
}
