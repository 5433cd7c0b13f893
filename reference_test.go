package imageman

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		DomainURL:     "http://imageman.local",
		AssetImageURL: "http://assets.imageman.local",
		Service:       "svc",
	}
}

// HASH - DETERMINISM
func TestReference_Hash_Deterministic(t *testing.T) {
	cfg := testConfig()
	opts := map[string]string{"campaign": "summer"}

	ref := NewReference(cfg, "n", "s", opts)
	first := ref.Hash()

	require.Equal(t, first, ref.Hash())
	require.Equal(t, first, NewReference(cfg, "n", "s", opts).Hash())
}

// HASH - WIRE CONTRACT
func TestReference_Hash_MatchesDigestContract(t *testing.T) {
	cfg := testConfig()

	// sorted keys: name, service, source -> values joined with ":"
	sum := md5.Sum([]byte("n:svc:s"))
	want := hex.EncodeToString(sum[:])

	require.Equal(t, want, NewReference(cfg, "n", "s", nil).Hash())
}

// HASH - OPTS ORDER DOES NOT MATTER
func TestReference_Hash_SortedByKey(t *testing.T) {
	cfg := testConfig()

	a := NewReference(cfg, "n", "s", map[string]string{"aa": "1", "zz": "2"}).Hash()
	b := NewReference(cfg, "n", "s", map[string]string{"zz": "2", "aa": "1"}).Hash()
	require.Equal(t, a, b)

	// sorted values: 1 (aa), n (name), svc (service), s (source), 2 (zz)
	sum := md5.Sum([]byte("1:n:svc:s:2"))
	require.Equal(t, hex.EncodeToString(sum[:]), a)
}

// HASH - SERVICE IS PART OF THE IDENTITY
func TestReference_Hash_ChangesWithService(t *testing.T) {
	cfg := testConfig()
	other := cfg
	other.Service = "another-svc"

	require.NotEqual(t,
		NewReference(cfg, "n", "s", nil).Hash(),
		NewReference(other, "n", "s", nil).Hash(),
	)
}

// HASH - EXTRA OPT CHANGES IT, REMOVING IT RESTORES
func TestReference_Hash_ExtraOpt(t *testing.T) {
	cfg := testConfig()

	plain := NewReference(cfg, "n", "s", nil).Hash()
	extra := NewReference(cfg, "n", "s", map[string]string{"other": "x"}).Hash()

	require.NotEqual(t, plain, extra)
	require.Equal(t, plain, NewReference(cfg, "n", "s", map[string]string{}).Hash())
}

// HASH - EMPTY VALUES ARE DROPPED
func TestReference_Hash_DropsEmptyValues(t *testing.T) {
	cfg := testConfig()

	plain := NewReference(cfg, "n", "s", nil).Hash()
	withEmpty := NewReference(cfg, "n", "s", map[string]string{"other": ""}).Hash()

	require.Equal(t, plain, withEmpty)
}

// HASH - OPTS CANNOT OVERRIDE RESERVED KEYS
func TestReference_Hash_ReservedKeysWin(t *testing.T) {
	cfg := testConfig()

	plain := NewReference(cfg, "n", "s", nil).Hash()
	clash := NewReference(cfg, "n", "s", map[string]string{"name": "spoofed"}).Hash()

	require.Equal(t, plain, clash)
}

// URL
func TestReference_URL(t *testing.T) {
	cfg := testConfig()
	ref := NewReference(cfg, "n", "s", nil)

	require.Equal(t, cfg.AssetImageURL+"/"+ref.Hash(), ref.URL())
	require.Equal(t, ref.URL(), ReferenceURL(cfg, "n", "s", nil))
	require.Equal(t, ref.Hash(), ReferenceHash(cfg, "n", "s", nil))
}

// DEFAULT SERVICE
func TestConfig_ServiceDefault(t *testing.T) {
	cfg := testConfig()
	cfg.Service = ""

	require.Equal(t, DefaultService, cfg.service())
}
