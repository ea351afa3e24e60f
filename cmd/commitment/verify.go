package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/ecdsa-commitment/pkg/commitment"
)

type verifyOptions struct {
	artifactFile string
	openingFile  string
	publicKey    string
	publicKeyPEM string
	signature    string
	message      string
	messageHex   string
	salt         string
}

func newVerifyCommand(global *globalOptions) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a revealed message against a commitment",
		Long: "Verify either an artifact/opening file pair or an explicit public key, signature and message. " +
			"Exits 0 on a match, 2 on a mismatch and 1 on malformed input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := global.engine()
			if err != nil {
				return err
			}
			return runVerify(engine, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.artifactFile, "artifact", "", "Artifact JSON file produced by commit")
	f.StringVar(&opts.openingFile, "opening", "", "Opening JSON file produced by commit")
	f.StringVar(&opts.publicKey, "public-key", "", "Public key in hex (33 or 65 bytes)")
	f.StringVar(&opts.publicKeyPEM, "public-key-pem", "", "PEM file holding the public key (overrides --public-key)")
	f.StringVar(&opts.signature, "signature", "", "Signature in hex (64 bytes, r || s)")
	f.StringVar(&opts.message, "message", "", "Revealed message text")
	f.StringVar(&opts.messageHex, "message-hex", "", "Revealed message bytes in hex (overrides --message)")
	f.StringVar(&opts.salt, "salt", "", "Revealed salt in hex")

	return cmd
}

func runVerify(engine *commitment.Engine, opts *verifyOptions, out io.Writer) error {
	var (
		ok  bool
		err error
	)

	if opts.artifactFile != "" || opts.openingFile != "" {
		if opts.artifactFile == "" || opts.openingFile == "" {
			return errors.New("--artifact and --opening must be given together")
		}

		var artifact commitment.Artifact
		if err := readJSON(opts.artifactFile, &artifact); err != nil {
			return fmt.Errorf("failed to read artifact: %w", err)
		}
		var opening commitment.Opening
		if err := readJSON(opts.openingFile, &opening); err != nil {
			return fmt.Errorf("failed to read opening: %w", err)
		}
		ok, err = engine.VerifyOpening(&artifact, &opening)
	} else {
		if opts.publicKeyPEM != "" {
			data, err := os.ReadFile(opts.publicKeyPEM)
			if err != nil {
				return fmt.Errorf("failed to read public key: %w", err)
			}
			pub, err := commitment.PublicKeyFromPEM(data)
			if err != nil {
				return err
			}
			opts.publicKey = hex.EncodeToString(pub)
		}

		claims, perr := (&commitment.JSONParser{}).Decode(bytes.NewReader(claimJSON(opts)))
		if perr != nil {
			return perr
		}
		c := claims[0]
		if c.Salted {
			ok, err = engine.VerifyWithSalt(c.PublicKey, c.Signature, c.Message, c.Salt)
		} else {
			ok, err = engine.Verify(c.PublicKey, c.Signature, c.Message)
		}
	}
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintln(out, "BAD SIGNATURE")
		return errMismatch
	}
	fmt.Fprintln(out, "good signature")
	return nil
}

// claimJSON renders the explicit flags as a one-element claim list so they
// go through the same decoding as claim files.
func claimJSON(opts *verifyOptions) []byte {
	data, _ := json.Marshal([]map[string]string{{
		"public_key":  opts.publicKey,
		"signature":   opts.signature,
		"message":     opts.message,
		"message_hex": opts.messageHex,
		"salt":        opts.salt,
	}})
	return data
}

type verifyBatchOptions struct {
	claimsFile string
	format     string
}

func newVerifyBatchCommand(global *globalOptions) *cobra.Command {
	opts := &verifyBatchOptions{}

	cmd := &cobra.Command{
		Use:   "verify-batch",
		Short: "Verify a file of claims in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := global.engine()
			if err != nil {
				return err
			}
			return runVerifyBatch(cmd.Context(), engine, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.claimsFile, "claims", "", "Path to claims file (JSON or CSV)")
	f.StringVar(&opts.format, "format", "json", "Claims file format (json or csv)")
	_ = cmd.MarkFlagRequired("claims")

	return cmd
}

func runVerifyBatch(ctx context.Context, engine *commitment.Engine, opts *verifyBatchOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Set up parser based on format
	var parser commitment.ClaimParser
	switch opts.format {
	case "json":
		parser = &commitment.JSONParser{}
	case "csv":
		parser = &commitment.CSVParser{}
	default:
		return fmt.Errorf("unknown format %q (json or csv)", opts.format)
	}

	claims, err := parser.ParseClaims(opts.claimsFile)
	if err != nil {
		return fmt.Errorf("failed to parse claims: %w", err)
	}

	result, err := engine.VerifyBatch(ctx, claims)
	if err != nil {
		return err
	}

	for i, ok := range result.Valid {
		switch {
		case result.Errors[i] != nil:
			fmt.Fprintf(out, "%d\tMALFORMED\t%v\n", i, result.Errors[i])
		case ok:
			fmt.Fprintf(out, "%d\tgood signature\n", i)
		default:
			fmt.Fprintf(out, "%d\tBAD SIGNATURE\n", i)
		}
	}
	fmt.Fprintf(out, "%d/%d claims verified\n", result.CountValid(), len(claims))

	if err := result.Err(); err != nil {
		return err
	}
	if result.CountValid() != len(claims) {
		return errMismatch
	}
	return nil
}

type auditOptions struct {
	artifactsFile string
}

func newAuditCommand(global *globalOptions) *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check published artifacts for reused keys and nonces",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := global.engine()
			if err != nil {
				return err
			}

			var artifacts []*commitment.Artifact
			if err := readJSON(opts.artifactsFile, &artifacts); err != nil {
				return fmt.Errorf("failed to read artifacts: %w", err)
			}

			findings, err := engine.Audit(artifacts)
			for _, f := range findings {
				fmt.Fprintln(cmd.OutOrStdout(), f.String())
			}
			if err != nil {
				return err
			}
			if len(findings) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d artifacts, no reuse found\n", len(artifacts))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.artifactsFile, "artifacts", "", "JSON array of artifacts")
	_ = cmd.MarkFlagRequired("artifacts")

	return cmd
}

type keyOptions struct {
	privateKeyFile string
	artifactFile   string
}

func newKeyCommand(global *globalOptions) *cobra.Command {
	opts := &keyOptions{}

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Inspect a retained private key and match it to an artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKey(opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.privateKeyFile, "private-key", "", "PEM file written by commit --private-key-out")
	f.StringVar(&opts.artifactFile, "artifact", "", "Optional artifact JSON file the key should have signed")
	_ = cmd.MarkFlagRequired("private-key")

	return cmd
}

func runKey(opts *keyOptions, out io.Writer) error {
	data, err := os.ReadFile(opts.privateKeyFile)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	kp, err := commitment.KeypairFromPEM(data)
	if err != nil {
		return err
	}
	defer kp.Zero()

	fmt.Fprintf(out, "fingerprint=%s\n", kp.Fingerprint())
	fmt.Fprintf(out, "vk_uncompressed=%s\n", hex.EncodeToString(kp.PublicKeyBytes()))
	fmt.Fprintf(out, "vk_compressed=%s\n", hex.EncodeToString(kp.CompressedPublicKeyBytes()))

	if opts.artifactFile == "" {
		return nil
	}

	var artifact commitment.Artifact
	if err := readJSON(opts.artifactFile, &artifact); err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	if !kp.Owns(artifact.PublicKey) {
		fmt.Fprintf(out, "artifact %s was signed by another key\n", artifact.ID)
		return errMismatch
	}
	fmt.Fprintf(out, "artifact %s was signed by this key\n", artifact.ID)
	return nil
}
