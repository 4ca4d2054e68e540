package console

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAttachWithAndWithoutTicket(t *testing.T) {
	cmd, err := Parse("attach queen")
	require.NoError(t, err)
	require.Equal(t, VerbAttach, cmd.Verb)
	require.Equal(t, "queen", cmd.Attach.Role)
	require.Empty(t, cmd.Attach.Ticket)

	cmd, err = Parse("attach gpu t0k3n")
	require.NoError(t, err)
	require.Equal(t, "gpu", cmd.Attach.Role)
	require.Equal(t, "t0k3n", cmd.Attach.Ticket)
}

func TestParsePathVerbs(t *testing.T) {
	cmd, err := Parse("tail /log/queen.log")
	require.NoError(t, err)
	require.Equal(t, VerbTail, cmd.Verb)
	require.Equal(t, "/log/queen.log", cmd.Tail.Path)

	_, err = Parse("ls")
	require.Error(t, err)

	_, err = Parse("cat a b")
	require.Error(t, err)
}

func TestParseEchoRequiresSeparator(t *testing.T) {
	cmd, err := Parse("echo hello world > /srv/out.txt")
	require.NoError(t, err)
	require.Equal(t, "hello world", cmd.Echo.Text)
	require.Equal(t, "/srv/out.txt", cmd.Echo.Path)

	_, err = Parse("echo hello world")
	var ce *Error
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "MalformedArg", ce.Kind)
}

func TestParseSpawnAndKill(t *testing.T) {
	cmd, err := Parse("spawn gpu count=2 region=us")
	require.NoError(t, err)
	require.Equal(t, "gpu", cmd.Spawn.Role)
	require.Equal(t, "2", cmd.Spawn.Args["count"])
	require.Equal(t, "us", cmd.Spawn.Args["region"])

	_, err = Parse("spawn gpu badarg")
	require.Error(t, err)

	cmd, err = Parse("kill worker-3")
	require.NoError(t, err)
	require.Equal(t, "worker-3", cmd.Kill.WorkerID)
}

func TestParseTestFlags(t *testing.T) {
	cmd, err := Parse("test --mode full --json --timeout 30")
	require.NoError(t, err)
	require.Equal(t, "full", cmd.Test.Mode)
	require.True(t, cmd.Test.JSON)
	require.Equal(t, 30, cmd.Test.TimeoutS)
	require.True(t, cmd.Test.HasTimeout)
	require.True(t, cmd.Test.Mutate)

	cmd, err = Parse("test --no-mutate")
	require.NoError(t, err)
	require.False(t, cmd.Test.Mutate)

	_, err = Parse("test --bogus")
	require.Error(t, err)
}

func TestParseUnknownVerb(t *testing.T) {
	_, err := Parse("reboot")
	var ce *Error
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "InvalidVerb", ce.Kind)
}

func TestParseNoArgVerbs(t *testing.T) {
	for _, line := range []string{"help", "log", "ping", "quit"} {
		cmd, err := Parse(line)
		require.NoError(t, err, line)
		require.NotNil(t, cmd)
	}
}

func TestSuggestCompletesPrefix(t *testing.T) {
	require.Equal(t, []string{"tail", "test"}, Suggest("t"))
	require.Equal(t, []string{"kill"}, Suggest("k"))
	require.Nil(t, Suggest("z"))
}

func TestSuggestStopsAfterFirstWord(t *testing.T) {
	require.Nil(t, Suggest("attach q"))
}

func TestVerbsMatchesClosedSet(t *testing.T) {
	require.Len(t, Verbs(), 12)
	require.Contains(t, Verbs(), "spawn")
}
