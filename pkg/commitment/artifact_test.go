package commitment

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/digest"
	"github.com/mahdiidarabi/ecdsa-commitment/internal/pemenc"
)

func commitChampion(t *testing.T, engine *Engine) *Artifact {
	t.Helper()
	artifact, err := engine.Commit([]byte(championMessage), mustKeypair(t, engine))
	require.NoError(t, err)
	return artifact
}

func TestArtifact_BinaryRoundTrip(t *testing.T) {
	artifact := commitChampion(t, newTestEngine())

	data, err := artifact.MarshalBinary()
	require.NoError(t, err)

	var decoded Artifact
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, *artifact, decoded)
}

func TestArtifact_JSONRoundTrip(t *testing.T) {
	artifact := commitChampion(t, newTestEngine())

	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	assert.Contains(t, string(data), artifact.PublicKeyHex())
	assert.Contains(t, string(data), `"digest":"sha256"`)

	var decoded Artifact
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *artifact, decoded)
}

func TestArtifact_SaltedRoundTrip(t *testing.T) {
	engine := newTestEngine()
	artifact, err := engine.CommitWithSalt([]byte("yes"), []byte{0x01, 0x02}, mustKeypair(t, engine))
	require.NoError(t, err)
	require.True(t, artifact.Salted)

	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"salted":true`)

	var fromJSON Artifact
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.True(t, fromJSON.Salted)

	bin, err := artifact.MarshalBinary()
	require.NoError(t, err)

	var fromCBOR Artifact
	require.NoError(t, fromCBOR.UnmarshalBinary(bin))
	assert.Equal(t, *artifact, fromCBOR)
}

func TestArtifact_UnmarshalRejectsMalformed(t *testing.T) {
	artifact := commitChampion(t, newTestEngine())

	broken := *artifact
	broken.PublicKey = broken.PublicKey[:40]
	data, err := broken.MarshalBinary()
	require.NoError(t, err)

	var decoded Artifact
	err = decoded.UnmarshalBinary(data)
	assert.True(t, IsMalformedInput(err))

	err = json.Unmarshal([]byte(`{"public_key":"zz","signature":"00","digest":"sha256"}`), &decoded)
	assert.True(t, IsMalformedInput(err))

	good, err := json.Marshal(artifact)
	require.NoError(t, err)
	err = json.Unmarshal([]byte(strings.Replace(string(good), "sha256", "md5", 1)), &decoded)
	assert.ErrorIs(t, err, ErrUnknownDigest)

	assert.Error(t, decoded.UnmarshalBinary([]byte{0xff, 0x00}))
}

func TestArtifact_Validate(t *testing.T) {
	artifact := commitChampion(t, newTestEngine())
	require.NoError(t, artifact.Validate())

	bad := *artifact
	bad.Signature = bad.Signature[:10]
	assert.True(t, IsMalformedInput(bad.Validate()))

	bad = *artifact
	bad.Digest = digest.Algorithm("crc32")
	assert.ErrorIs(t, bad.Validate(), ErrUnknownDigest)
}

func TestArtifact_PublicKeyPEM(t *testing.T) {
	artifact := commitChampion(t, newTestEngine())

	block, err := artifact.PublicKeyPEM()
	require.NoError(t, err)

	pub, err := pemenc.DecodePublicKey(block)
	require.NoError(t, err)
	assert.Equal(t, artifact.PublicKey, pub)
}

func TestOpening_RoundTrip(t *testing.T) {
	engine := newTestEngine()
	opening := engine.Reveal([]byte(championMessage), []byte{1, 2, 3})

	data, err := opening.MarshalBinary()
	require.NoError(t, err)
	var fromCBOR Opening
	require.NoError(t, fromCBOR.UnmarshalBinary(data))
	assert.Equal(t, *opening, fromCBOR)

	js, err := json.Marshal(opening)
	require.NoError(t, err)
	var fromJSON Opening
	require.NoError(t, json.Unmarshal(js, &fromJSON))
	assert.Equal(t, *opening, fromJSON)

	unsalted, err := json.Marshal(engine.Reveal([]byte("x"), nil))
	require.NoError(t, err)
	assert.NotContains(t, string(unsalted), "salt")
}
