package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/ecdsa-commitment/pkg/commitment"
)

const (
	demoCommitted = "Manchester United is a new champion"
	demoClaimed   = "Liverpool City Football Club is a new champion"
)

func newDemoCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a full commit, reveal and verify round",
		Long: "Commits to a prediction, then checks the honest reveal and a dishonest one " +
			"that claims a different result against the same artifact.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := global.engine()
			if err != nil {
				return err
			}
			return runDemo(engine, cmd.OutOrStdout())
		},
	}
}

func runDemo(engine *commitment.Engine, out io.Writer) error {
	instance := engine.NewInstance([]byte(demoCommitted), nil)

	artifact, err := instance.Commit()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "vk=%s\n", artifact.PublicKeyHex())
	fmt.Fprintf(out, "sig=%s\n", artifact.SignatureHex())

	opening, err := instance.Reveal()
	if err != nil {
		return err
	}
	ok, err := instance.Verify()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "message=%q verified=%t\n", opening.Message, ok)
	if !ok {
		return errMismatch
	}

	// The committer now claims a different result with the same artifact.
	lie, err := engine.VerifyOpening(artifact, engine.Reveal([]byte(demoClaimed), nil))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "message=%q verified=%t\n", demoClaimed, lie)

	log.WithField("message_hex", hex.EncodeToString(opening.Message)).Debug("demo finished")
	return nil
}
