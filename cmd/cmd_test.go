package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/sha256-digest/internal/config"
)

const (
	emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	abcDigest   = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
)

type testApp struct{}

func (testApp) Config() config.Config { return config.Config{} }
func (testApp) Logger() *zap.Logger   { return zap.NewNop() }
func (testApp) Close()                {}

func TestMain(m *testing.M) {
	loadApp := newApp
	newApp = func(ctx context.Context, path string) (App, error) {
		if path != "" {
			return loadApp(ctx, path)
		}
		return testApp{}, nil
	}
	os.Exit(m.Run())
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSumStrings(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "", "sum", "-s", "abc", "--string", "")
	require.NoError(t, err)
	require.Equal(t, abcDigest+"  \"abc\"\n"+emptyDigest+"  \"\"\n", out)
}

func TestSumVerbose(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "", "sum", "--verbose", "-s", "Hello, Rust!")
	require.NoError(t, err)
	require.Equal(t,
		"Input data: Hello, Rust!\nSHA-256 hash: 12a967da1e8654e129d41e3c016f14e81e751e073feb383125bf82080256ca19\n",
		out,
	)
}

func TestSumReadsStdinByDefault(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "abc", "sum")
	require.NoError(t, err)
	require.Equal(t, abcDigest+"  -\n", out)
}

func TestSumFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "abc.txt")
	second := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(first, []byte("abc"), 0o600))
	require.NoError(t, os.WriteFile(second, nil, 0o600))

	out, _, err := execute(t, "", "sum", first, second)
	require.NoError(t, err)
	require.Equal(t, abcDigest+"  "+first+"\n"+emptyDigest+"  "+second+"\n", out)
}

func TestSumMissingFileContinues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "abc.txt")
	require.NoError(t, os.WriteFile(present, []byte("abc"), 0o600))

	out, stderr, err := execute(t, "", "sum", filepath.Join(dir, "missing"), present)
	require.EqualError(t, err, "1 of 2 inputs could not be read")
	require.Contains(t, stderr, "missing")
	require.Contains(t, out, abcDigest+"  "+present)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		stdin   string
		wantOut string
		wantErr string
	}{
		{name: "match", args: []string{abcDigest}, stdin: "abc", wantOut: "-: OK\n"},
		{name: "uppercase", args: []string{strings.ToUpper(abcDigest)}, stdin: "abc", wantOut: "-: OK\n"},
		{name: "mismatch", args: []string{abcDigest}, stdin: "abd", wantOut: "-: FAILED\n", wantErr: "digest mismatch"},
		{name: "malformed", args: []string{"abc"}, stdin: "abc", wantErr: "expected digest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, _, err := execute(t, tt.stdin, append([]string{"check"}, tt.args...)...)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantOut, out)
		})
	}
}

func TestCheckFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	out, _, err := execute(t, "", "check", emptyDigest, path)
	require.NoError(t, err)
	require.Equal(t, path+": OK\n", out)
}

func TestCheckRequiresDigest(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "check")
	require.Error(t, err)
}

func TestRootConfigLoadFailure(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "sum", "-s", "abc")
	require.ErrorContains(t, err, "failed to initialize application")
}

func TestServeRejectsArgs(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "serve", "extra")
	require.Error(t, err)
}
