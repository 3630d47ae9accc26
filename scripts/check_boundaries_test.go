package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGo(t *testing.T, root string, rel string, body string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCollectViolations(t *testing.T) {
	root := t.TempDir()
	writeGo(t, root, "civic-voting/election-engine/domain/entities/ok.go",
		"package entities\nimport \"time\"\nvar _ time.Time\n")
	writeGo(t, root, "civic-voting/election-engine/domain/entities/bad.go",
		"package entities\nimport _ \"github.com/google/uuid\"\n")
	writeGo(t, root, "civic-voting/election-engine/application/bad.go",
		"package application\nimport _ \"ballotbox/contexts/civic-voting/election-engine/adapters/memory\"\n")
	writeGo(t, root, "civic-voting/election-engine/adapters/http/cross.go",
		"package httpadapter\nimport _ \"ballotbox/contexts/identity-access/account-service/ports\"\n")
	writeGo(t, root, "civic-voting/election-engine/ports/ok.go",
		"package ports\nimport _ \"ballotbox/contracts/gen/events/v1\"\n")

	got := collectViolations(root)

	rules := map[string]bool{}
	for _, v := range got {
		rules[v.Rule] = true
	}
	for _, want := range []string{
		"domain must stay on the standard library",
		"application must not import adapters",
		"application import is outside explicit allowlist",
		"cross-context imports are forbidden",
	} {
		if !rules[want] {
			t.Fatalf("expected rule %q in %+v", want, got)
		}
	}
	for _, v := range got {
		if filepath.Base(v.File) == "ok.go" {
			t.Fatalf("unexpected violation %+v", v)
		}
	}
}
