package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/nudge/util/testutil"

	"go.uber.org/zap"
)

const catalogYAML = `
messages:
  gold:
    text: "You're **gold**"
    action: https://example.com/upgrade?plan={plan}
    style: LOUD
    trigger: [GOLD]
  welcome:
    action: OPEN
    trigger: [ALWAYS]
  broken:
    action: NOWHERE
    trigger: [ALWAYS]
styles:
  LOUD:
    priority: 90
actions:
  OPEN: app://open
triggers:
  ALWAYS: "true"
  GOLD: "plan == 'gold'"
`

func run(t *testing.T, args ...string) string {
	t.Helper()
	logger = zap.NewNop()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestCLI(t *testing.T) {
	cat := testutil.WriteFile(t, "catalog.yaml", catalogYAML)
	store := filepath.Join(t.TempDir(), "metadata.json")
	common := []string{"-c", cat, "--store", "json", "--store-path", store, "-i", "goja"}
	with := func(args ...string) []string {
		return append(append([]string{}, args...), common...)
	}

	out := run(t, with("list", "-a", `{"plan":"gold"}`)...)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "gold\t") {
		t.Fatalf("list:\n%s", out)
	}

	out = run(t, with("next", "-a", `{"plan":"gold"}`)...)
	for _, want := range []string{`"id": "gold"`, `"style": "LOUD"`, `"priority": 90`, `"displayed": 0`} {
		if !strings.Contains(out, want) {
			t.Fatalf("next: no %s in\n%s", want, out)
		}
	}

	out = run(t, with("action", "gold", "-a", `{"plan":"gold"}`)...)
	if strings.TrimSpace(out) != "https://example.com/upgrade?plan=gold" {
		t.Fatalf("action: %s", out)
	}

	out = run(t, with("dismiss", "gold", "-a", `{}`)...)
	if !strings.Contains(out, `"dismissed":true`) || !strings.Contains(out, `"displayCount":1`) {
		t.Fatalf("dismiss: %s", out)
	}

	out = run(t, with("next", "-a", `{"plan":"gold"}`)...)
	if !strings.Contains(out, `"id": "welcome"`) {
		t.Fatalf("next after dismiss:\n%s", out)
	}

	out = run(t, with("analyze")...)
	if !strings.Contains(out, "bad action NOWHERE") {
		t.Fatalf("analyze:\n%s", out)
	}

	out = run(t, with("html")...)
	if !strings.Contains(out, "<strong>gold</strong>") {
		t.Fatalf("html:\n%s", out)
	}
}

func TestCLIErrors(t *testing.T) {
	logger = zap.NewNop()
	cat := testutil.WriteFile(t, "catalog.yaml", catalogYAML)

	for _, args := range [][]string{
		{"list", "-c", filepath.Join(t.TempDir(), "nope.yaml")},
		{"list", "-c", cat, "--store", "mem", "-i", "cobol"},
		{"list", "-c", cat, "--store", "mem", "-i", "goja", "-a", "{bad"},
		{"action", "nope", "-c", cat, "--store", "mem", "-i", "goja", "-a", "{}"},
	} {
		rootCmd.SetOut(&bytes.Buffer{})
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs(args)
		if err := rootCmd.ExecuteContext(context.Background()); err == nil {
			t.Fatalf("%v: expected an error", args)
		}
	}
}
