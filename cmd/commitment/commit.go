package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/ecdsa-commitment/pkg/commitment"
)

type commitOptions struct {
	message    string
	messageHex string
	saltSize   int
	openingOut string
	privateOut string
	showPEM    bool
}

func newCommitCommand(global *globalOptions) *cobra.Command {
	opts := &commitOptions{}

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit to a message and print the artifact to publish",
		Long: "Generates a fresh keypair, signs the message, prints the public key and signature as JSON, " +
			"and writes the opening (message and salt) to --opening-out for the later reveal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := global.engine()
			if err != nil {
				return err
			}
			return runCommit(engine, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.message, "message", "", "Message text to commit to")
	f.StringVar(&opts.messageHex, "message-hex", "", "Message bytes in hex (overrides --message)")
	f.IntVar(&opts.saltSize, "salt-size", 0, "Salt the message with this many random bytes (0 = no salt)")
	f.StringVar(&opts.openingOut, "opening-out", "opening.json", "File to write the opening to (kept private until reveal)")
	f.StringVar(&opts.privateOut, "private-key-out", "", "Optionally retain the private key as PEM for audit")
	f.BoolVar(&opts.showPEM, "pem", false, "Also print the public key as PEM")

	return cmd
}

func runCommit(engine *commitment.Engine, opts *commitOptions, out io.Writer) error {
	message, err := messageBytes(opts.message, opts.messageHex)
	if err != nil {
		return err
	}

	var salt []byte
	if opts.saltSize > 0 {
		if salt, err = engine.GenerateSalt(opts.saltSize); err != nil {
			return err
		}
	}

	kp, err := engine.GenerateKeypair()
	if err != nil {
		return err
	}
	defer kp.Zero()

	artifact, err := engine.CommitWithSalt(message, salt, kp)
	if err != nil {
		return err
	}

	if opts.privateOut != "" {
		block, err := kp.PrivateKeyPEM()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.privateOut, block, 0o600); err != nil {
			return fmt.Errorf("failed to write private key: %w", err)
		}
	}

	if opts.openingOut == "" {
		return errors.New("--opening-out is required")
	}
	if err := writeJSON(opts.openingOut, engine.Reveal(message, salt)); err != nil {
		return fmt.Errorf("failed to write opening: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		return err
	}

	fmt.Fprintf(out, "vk_uncompressed=%s\n", hex.EncodeToString(kp.PublicKeyBytes()))
	fmt.Fprintf(out, "vk_compressed=%s\n", hex.EncodeToString(kp.CompressedPublicKeyBytes()))

	if opts.showPEM {
		block, err := artifact.PublicKeyPEM()
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(block))
	}

	log.WithField("artifact", artifact.ID).Infof("opening written to %s", opts.openingOut)
	return nil
}

func messageBytes(text, hexText string) ([]byte, error) {
	if hexText != "" {
		b, err := hex.DecodeString(strings.TrimPrefix(hexText, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse message hex: %w", err)
		}
		return b, nil
	}
	return []byte(text), nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
