package cmd

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sha256-digest/internal/hash/sha256"
	"github.com/JakeFAU/sha256-digest/internal/logging"
)

var errDigestMismatch = errors.New("digest mismatch")

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <HEX> [FILE]",
		Short: "Verify input against an expected SHA-256 digest",
		Long: `Digest FILE (or standard input) and compare it with HEX. Prints "<name>: OK"
on a match and exits non-zero with "<name>: FAILED" otherwise.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())

	want, err := sha256.ParseDigest(args[0])
	if err != nil {
		return fmt.Errorf("expected digest: %w", err)
	}
	name := stdinName
	if len(args) == 2 {
		name = args[1]
	}
	data, err := readInput(name, cmd.InOrStdin())
	if err != nil {
		return err
	}

	got := sha256.Sum256(data)
	if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
		logger.Debug("digest mismatch", zap.String("input", name), zap.Stringer("got", got), zap.Stringer("want", want))
		fmt.Fprintf(cmd.OutOrStdout(), "%s: FAILED\n", name)
		return errDigestMismatch
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", name)
	return nil
}
