package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})

	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "lucid v"+Version {
		t.Errorf("Unexpected output: %q", out.String())
	}
}

func TestCommandTree(t *testing.T) {
	want := map[string][]string{
		"serve": nil,
		"kv":    {"get", "set", "del", "lock", "unlock", "incr", "decr", "info", "perf"},
	}
	for name, subs := range want {
		c, _, err := RootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("Command %q not found: %v", name, err)
			continue
		}
		for _, sub := range subs {
			if sc, _, err := c.Find([]string{sub}); err != nil || sc.Name() != sub {
				t.Errorf("Command %q %q not found: %v", name, sub, err)
			}
		}
	}
}
