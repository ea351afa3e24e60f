package commitment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Audit_FreshKeys(t *testing.T) {
	engine := newTestEngine()

	var artifacts []*Artifact
	for i := 0; i < 5; i++ {
		a, err := engine.NewInstance([]byte(championMessage), nil).Commit()
		require.NoError(t, err)
		artifacts = append(artifacts, a)
	}

	findings, err := engine.Audit(artifacts)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestEngine_Audit_KeyReuse(t *testing.T) {
	engine := newTestEngine()
	kp := mustKeypair(t, engine)

	a1, err := engine.Commit([]byte("first"), kp)
	require.NoError(t, err)
	fresh := commitChampion(t, engine)

	// Same key, published compressed this time.
	cfg := DefaultConfig()
	cfg.CompressedKeys = true
	a2, err := newTestEngine().WithConfig(cfg).Commit([]byte("second"), kp)
	require.NoError(t, err)

	findings, err := engine.Audit([]*Artifact{a1, fresh, a2})
	require.NoError(t, err)
	require.Len(t, findings, 1)

	assert.Equal(t, FindingKeyReuse, findings[0].Kind)
	assert.Equal(t, []int{0, 2}, findings[0].Artifacts)
	assert.Equal(t, kp.Fingerprint(), findings[0].Fingerprint)
	t.Logf("Finding: %s", findings[0])
}

func TestEngine_Audit_NonceReuse(t *testing.T) {
	engine := newTestEngine()
	a1 := commitChampion(t, engine)

	// Same key and r with a different s, as a broken signer would emit.
	forged := *a1
	forged.Signature = append([]byte{}, a1.Signature...)
	forged.Signature[63] ^= 0x01

	findings, err := engine.Audit([]*Artifact{a1, &forged})
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, FindingKeyReuse, findings[0].Kind)
	assert.Equal(t, FindingNonceReuse, findings[1].Kind)
	assert.Equal(t, []int{0, 1}, findings[1].Artifacts)
	assert.Equal(t, a1.SignatureHex()[:64], findings[1].R)
	assert.Contains(t, findings[1].String(), "nonce_reuse")
}

func TestEngine_Audit_SkipsMalformed(t *testing.T) {
	engine := newTestEngine()
	good := commitChampion(t, engine)
	bad := &Artifact{PublicKey: []byte{0x02}, Signature: good.Signature, Digest: good.Digest}

	findings, err := engine.Audit([]*Artifact{good, bad, nil})
	assert.Error(t, err)
	assert.True(t, IsMalformedInput(err))
	assert.Empty(t, findings)
}
