package ledger_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/ledger-service/ledger"
)

func TestSaltedSHA256_Encode(t *testing.T) {
	d := ledger.SaltedSHA256{}

	first := d.Encode("hunter2")
	second := d.Encode("hunter2")
	other := d.Encode("hunter3")

	assert.Equal(t, first, second, "encoding is deterministic")
	assert.NotEqual(t, first, other)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), first, "lowercase hex SHA-256")
}

func TestSaltedSHA256_SaltChangesTheDigest(t *testing.T) {
	// The salted digest of "x" must differ from the plain SHA-256 of "x";
	// otherwise the salt is not applied.
	d := ledger.SaltedSHA256{}
	plainSHA256OfX := "2d711642b726b04401627ca9fbac32f5c8530fb1903cc4db02258717921a4881"

	assert.NotEqual(t, plainSHA256OfX, d.Encode("x"))
}
