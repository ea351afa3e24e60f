// Command commitment commits to messages and verifies openings from the shell.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/digest"
	"github.com/mahdiidarabi/ecdsa-commitment/pkg/commitment"
)

// errMismatch marks a well-formed opening that does not match its commitment.
var errMismatch = errors.New("BAD SIGNATURE")

type globalOptions struct {
	logLevel    string
	digest      string
	compressed  bool
	rejectEmpty bool
	workers     int
}

var log = logrus.New()

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, errMismatch) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "commitment",
		Short:         "ECDSA (secp256k1) commit/reveal tool",
		Long:          "Commit to a message by signing it under a fresh secp256k1 key, reveal it later, and let anyone verify the opening.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetOutput(os.Stderr)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.digest, "digest", string(digest.SHA256), "Digest applied before signing (sha256, sha3-256, blake3)")
	flags.BoolVar(&opts.compressed, "compressed", false, "Publish 33-byte compressed public keys")
	flags.BoolVar(&opts.rejectEmpty, "reject-empty", false, "Refuse empty messages")
	flags.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = auto-detect based on CPU cores)")

	root.AddCommand(
		newCommitCommand(opts),
		newVerifyCommand(opts),
		newVerifyBatchCommand(opts),
		newAuditCommand(opts),
		newKeyCommand(opts),
		newDemoCommand(opts),
	)
	return root
}

// engine builds a commitment engine from the global flags.
func (o *globalOptions) engine() (*commitment.Engine, error) {
	alg, err := digest.Parse(o.digest)
	if err != nil {
		return nil, err
	}

	cfg := commitment.DefaultConfig()
	cfg.Digest = alg
	cfg.CompressedKeys = o.compressed
	cfg.RejectEmptyMessage = o.rejectEmpty
	cfg.NumWorkers = o.workers

	return commitment.NewEngine().
		WithConfig(cfg).
		WithLogger(logrus.NewEntry(log).WithField("component", "commitment")), nil
}
