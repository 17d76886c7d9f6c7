package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sha256-digest/internal/hash/sha256"
	"github.com/JakeFAU/sha256-digest/internal/logging"
)

type sumOptions struct {
	strings []string
	verbose bool
}

func newSumCmd() *cobra.Command {
	opts := &sumOptions{}
	cmd := &cobra.Command{
		Use:   "sum [FILE...]",
		Short: "Print SHA-256 digests",
		Long: `Print the SHA-256 digest of each FILE, one "<hex>  <name>" line per input.
With no FILE and no --string, or when FILE is -, standard input is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSum(cmd, args, opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.strings, "string", "s", nil, "digest a literal string (repeatable)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print the input alongside each digest")
	return cmd
}

func runSum(cmd *cobra.Command, args []string, opts *sumOptions) error {
	logger := logging.FromContext(cmd.Context())
	out := cmd.OutOrStdout()

	for _, s := range opts.strings {
		writeSum(out, fmt.Sprintf("%q", s), s, sha256.Sum256([]byte(s)), opts.verbose)
	}

	if len(args) == 0 && len(opts.strings) == 0 {
		args = []string{stdinName}
	}

	var failed int
	for _, name := range args {
		data, err := readInput(name, cmd.InOrStdin())
		if err != nil {
			failed++
			logger.Error("read input failed", zap.String("input", name), zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "sha256-digest: %v\n", err)
			continue
		}
		sum := sha256.Sum256(data)
		logger.Debug("digest computed", zap.String("input", name), zap.Int("size", len(data)))
		writeSum(out, name, fmt.Sprintf("%s (%d bytes)", name, len(data)), sum, opts.verbose)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs could not be read", failed, len(args))
	}
	return nil
}

func writeSum(w io.Writer, name, input string, sum sha256.Digest, verbose bool) {
	if verbose {
		fmt.Fprintf(w, "Input data: %s\nSHA-256 hash: %s\n", input, sum)
		return
	}
	fmt.Fprintf(w, "%s  %s\n", sum, name)
}
