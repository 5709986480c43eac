package commands

import (
	"io"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cmd := New()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestCommandsRegistered(t *testing.T) {
	cmd := New()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"login", "lookup", "whoami", "logout", "avatar", "reset", "delete-account",
		"add", "edit", "done", "remove", "list", "watch", "report", "export",
		"ranks", "icons", "info", "completion", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := map[string]struct {
		args []string
		want string
	}{
		"login needs a name": {args: []string{"login"}, want: "requires a hunter name"},
		"add needs a name":   {args: []string{"add"}, want: "requires a quest name"},
		"avatar needs icon":  {args: []string{"avatar"}, want: "requires an icon"},
		"unknown tab":        {args: []string{"--memory", "list", "--tab", "later"}, want: `unknown tab "later"`},
		"bad deadline":       {args: []string{"--memory", "add", "x", "--due", "whenever"}, want: "whenever"},
		"export format":      {args: []string{"--memory", "export", "-o", "xml"}, want: `unknown output format "xml"`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := run(t, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestMemoryStoreRuns(t *testing.T) {
	assert.NoError(t, run(t, "--memory", "ranks"))
	assert.NoError(t, run(t, "--memory", "logout"))
}

func TestNotLoggedIn(t *testing.T) {
	err := run(t, "--memory", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active account")
}

func TestHelp(t *testing.T) {
	c, _, err := New().Find([]string{"report"})
	require.NoError(t, err)
	assert.NotNil(t, c.Flags().Lookup("last"))
}
