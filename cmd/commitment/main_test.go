package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/ecdsa-commitment/pkg/commitment"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommitThenVerify(t *testing.T) {
	dir := t.TempDir()
	openingPath := filepath.Join(dir, "opening.json")
	keyPath := filepath.Join(dir, "key.pem")

	out, err := execute(t, "commit",
		"--message", demoCommitted,
		"--salt-size", "16",
		"--opening-out", openingPath,
		"--private-key-out", keyPath,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "vk_compressed=")

	// The artifact JSON is printed first, followed by key lines.
	jsonEnd := strings.Index(out, "}\n")
	require.Positive(t, jsonEnd)
	artifactPath := filepath.Join(dir, "artifact.json")
	require.NoError(t, os.WriteFile(artifactPath, []byte(out[:jsonEnd+1]), 0o600))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = execute(t, "verify", "--artifact", artifactPath, "--opening", openingPath)
	require.NoError(t, err)
	assert.Contains(t, out, "good signature")

	// Swap in a different message.
	var opening commitment.Opening
	require.NoError(t, readJSON(openingPath, &opening))
	opening.Message = []byte(demoClaimed)
	require.NoError(t, writeJSON(openingPath, &opening))

	out, err = execute(t, "verify", "--artifact", artifactPath, "--opening", openingPath)
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "BAD SIGNATURE")
}

func TestVerify_ExplicitFlags(t *testing.T) {
	engine := commitment.NewEngine()
	kp, err := engine.GenerateKeypair()
	require.NoError(t, err)
	artifact, err := engine.Commit([]byte(demoCommitted), kp)
	require.NoError(t, err)

	out, err := execute(t, "verify",
		"--public-key", artifact.PublicKeyHex(),
		"--signature", artifact.SignatureHex(),
		"--message", demoCommitted,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "good signature")

	_, err = execute(t, "verify",
		"--public-key", artifact.PublicKeyHex(),
		"--signature", artifact.SignatureHex(),
		"--message", demoClaimed,
	)
	assert.ErrorIs(t, err, errMismatch)

	_, err = execute(t, "verify",
		"--public-key", "04",
		"--signature", artifact.SignatureHex(),
		"--message", demoCommitted,
	)
	require.Error(t, err)
	assert.True(t, commitment.IsMalformedInput(err))
	assert.NotErrorIs(t, err, errMismatch)
}

func TestVerify_RequiresBothFiles(t *testing.T) {
	_, err := execute(t, "verify", "--artifact", "artifact.json")
	assert.Error(t, err)
}

func TestVerifyBatch(t *testing.T) {
	engine := commitment.NewEngine()

	var rows []map[string]string
	for _, message := range []string{demoCommitted, demoClaimed} {
		kp, err := engine.GenerateKeypair()
		require.NoError(t, err)
		artifact, err := engine.Commit([]byte(message), kp)
		require.NoError(t, err)
		rows = append(rows, map[string]string{
			"public_key": artifact.PublicKeyHex(),
			"signature":  artifact.SignatureHex(),
			"message":    message,
		})
	}

	path := filepath.Join(t.TempDir(), "claims.json")
	data, err := json.Marshal(rows)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := execute(t, "verify-batch", "--claims", path, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2/2 claims verified")

	// Claiming the other result on the second row fails.
	rows[1]["message"] = demoCommitted
	data, err = json.Marshal(rows)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err = execute(t, "verify-batch", "--claims", path)
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "1/2 claims verified")

	_, err = execute(t, "verify-batch", "--claims", path, "--format", "xml")
	assert.Error(t, err)
}

func TestAudit(t *testing.T) {
	engine := commitment.NewEngine()
	kp, err := engine.GenerateKeypair()
	require.NoError(t, err)

	var artifacts []*commitment.Artifact
	for _, message := range []string{demoCommitted, demoClaimed} {
		a, err := engine.Commit([]byte(message), kp)
		require.NoError(t, err)
		artifacts = append(artifacts, a)
	}

	path := filepath.Join(t.TempDir(), "artifacts.json")
	require.NoError(t, writeJSON(path, artifacts))

	out, err := execute(t, "audit", "--artifacts", path)
	require.NoError(t, err)
	assert.Contains(t, out, "key_reuse: key "+kp.Fingerprint()+", artifacts [0 1]")

	// Fresh keys produce no findings.
	fresh, err := engine.GenerateKeypair()
	require.NoError(t, err)
	artifacts[1], err = engine.Commit([]byte(demoClaimed), fresh)
	require.NoError(t, err)
	require.NoError(t, writeJSON(path, artifacts))

	out, err = execute(t, "audit", "--artifacts", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 artifacts, no reuse found")
}

func TestKey_MatchesArtifact(t *testing.T) {
	dir := t.TempDir()
	openingPath := filepath.Join(dir, "opening.json")
	keyPath := filepath.Join(dir, "key.pem")

	out, err := execute(t, "commit", "--message", demoCommitted, "--opening-out", openingPath, "--private-key-out", keyPath)
	require.NoError(t, err)
	artifactPath := filepath.Join(dir, "artifact.json")
	require.NoError(t, os.WriteFile(artifactPath, []byte(out[:strings.Index(out, "}\n")+1]), 0o600))

	out, err = execute(t, "key", "--private-key", keyPath, "--artifact", artifactPath)
	require.NoError(t, err)
	assert.Contains(t, out, "was signed by this key")

	other := commitment.NewEngine()
	kp, err := other.GenerateKeypair()
	require.NoError(t, err)
	artifact, err := other.Commit([]byte(demoCommitted), kp)
	require.NoError(t, err)
	require.NoError(t, writeJSON(artifactPath, artifact))

	out, err = execute(t, "key", "--private-key", keyPath, "--artifact", artifactPath)
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "signed by another key")

	_, err = execute(t, "key", "--private-key", openingPath)
	assert.Error(t, err)
}

func TestVerify_PublicKeyPEMAndSalt(t *testing.T) {
	dir := t.TempDir()
	engine := commitment.NewEngine()
	kp, err := engine.GenerateKeypair()
	require.NoError(t, err)

	salt := []byte{0xde, 0xad}
	artifact, err := engine.CommitWithSalt([]byte(demoCommitted), salt, kp)
	require.NoError(t, err)

	block, err := artifact.PublicKeyPEM()
	require.NoError(t, err)
	pemPath := filepath.Join(dir, "vk.pem")
	require.NoError(t, os.WriteFile(pemPath, block, 0o600))

	out, err := execute(t, "verify",
		"--public-key-pem", pemPath,
		"--signature", artifact.SignatureHex(),
		"--message", demoCommitted,
		"--salt", "dead",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "good signature")

	// Dropping the salt does not match a salted commitment.
	_, err = execute(t, "verify",
		"--public-key-pem", pemPath,
		"--signature", artifact.SignatureHex(),
		"--message", demoCommitted,
	)
	assert.ErrorIs(t, err, errMismatch)
}

func TestDemo(t *testing.T) {
	for _, dig := range []string{"sha256", "sha3-256", "blake3"} {
		t.Run(dig, func(t *testing.T) {
			out, err := execute(t, "demo", "--digest", dig)
			require.NoError(t, err)

			honest := strings.Index(out, "verified=true")
			lie := strings.Index(out, "verified=false")
			require.GreaterOrEqual(t, honest, 0)
			require.GreaterOrEqual(t, lie, 0)
			assert.Less(t, honest, lie, "honest reveal is reported first")
		})
	}
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(commitment.NewEngine(), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "vk=04"))
	assert.True(t, strings.HasPrefix(lines[1], "sig="))
	assert.Equal(t, fmt.Sprintf("message=%q verified=true", demoCommitted), lines[2])
	assert.Equal(t, fmt.Sprintf("message=%q verified=false", demoClaimed), lines[3])
}

func TestUnknownDigestFlag(t *testing.T) {
	_, err := execute(t, "demo", "--digest", "md5")
	assert.Error(t, err)
}

func TestMessageBytes(t *testing.T) {
	b, err := messageBytes("ignored", "0x6869")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(b))

	b, err = messageBytes("text", "")
	require.NoError(t, err)
	assert.Equal(t, "text", string(b))

	_, err = messageBytes("", "zz")
	assert.Error(t, err)
}
