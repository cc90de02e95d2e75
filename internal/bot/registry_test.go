package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"Add One":       "add-one",
		"add-one":       "add-one",
		"NEXT":          "next",
		"Page 2 of 10":  "page-2-of-10",
		"under_score":   "under_score",
		"emoji ok? yes": "emoji-ok--yes",
	}
	for label, want := range cases {
		assert.Equal(t, want, NormalizeLabel(label), "label %q", label)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	cmd := NewCommand("add", "1.0.0", "Keep adding a number")
	cmd.Handle("", func(ctx context.Context, exec *Execution, ev *CommandEvent) error { return nil })

	require.NoError(t, reg.Register(cmd))
	assert.Error(t, reg.Register(addCommand("2.0.0")))
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(NewCommand("", "1.0.0", "nameless")))
}

func TestCommandButtonLookupByNormalizedID(t *testing.T) {
	cmd := addCommand("1.0.0")

	btn := cmd.button("add-one")
	require.NotNil(t, btn)
	assert.Equal(t, "Add One", btn.Label)
	assert.Equal(t, StyleSuccess, btn.Style)

	assert.Nil(t, cmd.button("Add One"), "lookup is by normalized id, not label")
}

func TestExecutionButtonBindsID(t *testing.T) {
	cmd := addCommand("1.0.0")
	exec := &Execution{ID: "exec-1", command: cmd, version: cmd.Version}

	component := exec.Button("Add One")
	assert.Equal(t, "exec-1_add-one", component.CustomID)
	assert.Equal(t, "Add One", component.Label)

	assert.Empty(t, exec.Button("Missing").CustomID)
}
