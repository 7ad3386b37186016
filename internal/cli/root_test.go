package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gameharvester", cmd.Use)
	assert.Contains(t, cmd.Long, "rate-limit")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "plan", "pool"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	daemon := run.Flags().Lookup("daemon")
	require.NotNil(t, daemon)
	assert.Equal(t, "false", daemon.DefValue)

	opsFlag := run.Flags().Lookup("ops")
	require.NotNil(t, opsFlag)
	assert.Equal(t, "false", opsFlag.DefValue)
}

func TestPlanCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	plan, _, err := cmd.Find([]string{"plan"})
	require.NoError(t, err)

	batches := plan.Flags().Lookup("batches")
	require.NotNil(t, batches)
	assert.Equal(t, "10", batches.DefValue)
}

func TestHelpRuns(t *testing.T) {
	cmd := NewRootCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "plan")
	assert.Contains(t, out.String(), "pool")
}

func TestTableRendersHeaderAndRows(t *testing.T) {
	var out bytes.Buffer

	tbl := newTable(&out, []string{"Handle", "Rating"})
	tbl.Append([]string{"Alpha", "2850"})
	tbl.Append([]string{"Beta", "2790"})
	tbl.Render()

	rendered := out.String()
	assert.Contains(t, rendered, "HANDLE")
	assert.Contains(t, rendered, "Alpha")
	assert.Contains(t, rendered, "2790")
}
