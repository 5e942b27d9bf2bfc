package xrpl

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/hashing"
)

const (
	signInBlob = "732102DB48115142459C05AA0D26F3752ADC9C5AF8348ADCF22A8CA73D5DF1839A190574473045022100F9F3274CD7036053082EBDECEA98FCEF3125D1FCE881C903ED68D108760588FE022068F54A1AB529869E48B1A242903A23AC117A699AF65179BD545E532119E27AA781143680F8503E56B53239FE0F5EB782285B3FE4DDE8F9EA7C04417574687D626E7566662E746563683A313736303032313430343A64343462373337322D383530332D346233392D393338622D3866633063353464343262363A6C6F67696E3A726E79427A4D48626D4A4D7A7A686B344E6F797975714B7A73616866484669415261E1F1"

	signInPubKey    = "02DB48115142459C05AA0D26F3752ADC9C5AF8348ADCF22A8CA73D5DF1839A1905"
	signInSignature = "3045022100F9F3274CD7036053082EBDECEA98FCEF3125D1FCE881C903ED68D108760588FE022068F54A1AB529869E48B1A242903A23AC117A699AF65179BD545E532119E27AA7"
	signInAddress   = "rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa"
	signInChallenge = "nuff.tech:1760021404:d44b7372-8503-4b39-938b-8fc0c54d42b6:login:rnyBzMHbmJMzzhk4NoyyuqKzsahfHFiARa"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestExtractFields_SignInBlob(t *testing.T) {
	fields, err := ExtractFields(signInBlob)
	require.NoError(t, err)

	assert.Equal(t, mustHex(t, signInPubKey), fields.SigningPubKey)
	assert.Equal(t, mustHex(t, signInSignature), fields.TxnSignature)
	assert.Equal(t, signInChallenge, fields.Challenge())
	assert.True(t, fields.HasSigningMaterial())
}

func TestExtractFields_LowercaseHex(t *testing.T) {
	upper, err := ExtractFields(signInBlob)
	require.NoError(t, err)
	lower, err := ExtractFields(strings.ToLower(signInBlob))
	require.NoError(t, err)
	assert.Equal(t, upper, lower)
}

func TestExtractFields_InvalidHex(t *testing.T) {
	for _, blob := range []string{"73ZZ", "7302AAB"} {
		_, err := ExtractFields(blob)
		assert.ErrorIs(t, err, ErrInvalidHex, blob)
	}
}

func TestExtractFields_Cases(t *testing.T) {
	zeros16 := strings.Repeat("00", 16)

	tests := []struct {
		name      string
		blob      string
		pubKey    string
		signature string
		challenge string
	}{
		{
			name:   "first SigningPubKey wins",
			blob:   "7302AABB" + "7302CCDD",
			pubKey: "AABB",
		},
		{
			name:      "first TxnSignature wins",
			blob:      "7401AA" + "7401BB",
			signature: "AA",
		},
		{
			name: "truncated SigningPubKey is not captured",
			blob: "7305AABB",
		},
		{
			name: "tag in last byte is ignored",
			blob: "0000" + "73",
		},
		{
			name:   "tag bytes inside an AccountID payload are not tags",
			blob:   "8114" + "7302AAAA" + zeros16 + "7301BB",
			pubKey: "BB",
		},
		{
			name:   "tag bytes inside a Hash256 payload are not tags",
			blob:   "51" + "7401EE" + strings.Repeat("11", 29) + "7301BB",
			pubKey: "BB",
		},
		{
			name:   "tag bytes inside a native Amount are not tags",
			blob:   "6840" + "7301EE0000" + "0000" + "7301BB",
			pubKey: "BB",
		},
		{
			name:      "two byte field header keeps the scan aligned",
			blob:      "201B05A30051" + "7302AABB" + "7401CC" + strings.Repeat("00", 40),
			pubKey:    "AABB",
			signature: "CC",
		},
		{
			name:   "type code in the second header byte",
			blob:   "0110" + "73" + "7301BB",
			pubKey: "BB",
		},
		{
			name:   "two byte VL length is skipped whole",
			blob:   "7EC100" + "7301EE" + strings.Repeat("00", 190) + "7301BB",
			pubKey: "BB",
		},
		{
			name:      "truncated SigningPubKey does not hide the next field",
			blob:      "73FF" + "7401CC",
			signature: "CC",
		},
		{
			name:      "truncated memo field does not hide the next one",
			blob:      "F9EA" + "7DFF" + "7C0141" + "E1F1",
			challenge: "A",
		},
		{
			name:      "longer MemoData is the challenge",
			blob:      "F9EA" + "7C0141" + "7D03424242" + "E1F1",
			challenge: "BBB",
		},
		{
			name:      "MemoType wins when not shorter",
			blob:      "F9EA" + "7C03414141" + "7D03424242" + "E1F1",
			challenge: "AAA",
		},
		{
			name:      "array may close with F1",
			blob:      "F9EA" + "7C0141" + "F1" + "7D03424242",
			challenge: "A",
		},
		{
			name: "memo tags outside the array are ignored",
			blob: "7D03424242",
		},
		{
			name:      "MemoFormat is skipped",
			blob:      "F9EA" + "7E027D05" + "7D0143" + "E1F1",
			challenge: "C",
		},
		{
			name:      "unterminated array keeps captured memo",
			blob:      "F9EA" + "7D0143",
			challenge: "C",
		},
		{
			name: "truncated memo is not captured",
			blob: "F9EA" + "7D0543",
		},
		{
			name: "empty blob",
			blob: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ExtractFields(tt.blob)
			require.NoError(t, err)
			assert.Equal(t, tt.pubKey, strings.ToUpper(hex.EncodeToString(fields.SigningPubKey)))
			assert.Equal(t, tt.signature, strings.ToUpper(hex.EncodeToString(fields.TxnSignature)))
			assert.Equal(t, tt.challenge, fields.Challenge())
		})
	}
}

func TestExtractFields_InvalidUTF8Challenge(t *testing.T) {
	fields, err := ExtractFields("F9EA7D02FF41E1F1")
	require.NoError(t, err)
	assert.Equal(t, "\uFFFDA", fields.Challenge())
}

func TestReconstructUnsigned_SignInBlob(t *testing.T) {
	unsigned, err := ReconstructUnsigned(signInBlob)
	require.NoError(t, err)

	sigField := "7447" + signInSignature
	require.Contains(t, signInBlob, sigField)
	want := "53545800" + strings.Replace(signInBlob, sigField, "", 1)

	assert.True(t, unsigned.SignatureRemoved)
	assert.Equal(t, want, strings.ToUpper(hex.EncodeToString(unsigned.Blob)))
}

func TestReconstructUnsigned_Cases(t *testing.T) {
	accountField := "8114" + strings.Repeat("AB", 20)

	tests := []struct {
		name    string
		blob    string
		want    string
		removed bool
	}{
		{
			name:    "signature after key is removed",
			blob:    "7301AA" + "7402BBBB" + accountField,
			want:    "7301AA" + accountField,
			removed: true,
		},
		{
			name: "signature not adjacent to key is kept",
			blob: "7301AA" + accountField + "7402BBBB",
			want: "7301AA" + accountField + "7402BBBB",
		},
		{
			name: "no signature",
			blob: "7301AA" + accountField,
			want: "7301AA" + accountField,
		},
		{
			name:    "two byte field header before the key",
			blob:    "201B05A30051" + "7302AABB" + "7401CC" + accountField,
			want:    "201B05A30051" + "7302AABB" + accountField,
			removed: true,
		},
		{
			name: "signature after a truncated key is kept",
			blob: "73FF" + "7401CC",
			want: "73FF" + "7401CC",
		},
		{
			name: "truncated signature is kept",
			blob: "7301AA" + "7405BBBB",
			want: "7301AA" + "7405BBBB",
		},
		{
			name: "empty",
			blob: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsigned, err := ReconstructUnsigned(tt.blob)
			require.NoError(t, err)
			assert.Equal(t, "53545800"+tt.want, strings.ToUpper(hex.EncodeToString(unsigned.Blob)))
			assert.Equal(t, tt.removed, unsigned.SignatureRemoved)
		})
	}
}

func TestReconstructUnsigned_InvalidHex(t *testing.T) {
	_, err := ReconstructUnsigned("not hex")
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestReconstructUnsigned_PreservesEveryOtherByte(t *testing.T) {
	raw := mustHex(t, signInBlob)
	unsigned := ReconstructUnsignedBytes(raw)
	fields := ExtractFieldsBytes(raw)

	assert.Equal(t, len(SigningPrefix)+len(raw)-2-len(fields.TxnSignature), len(unsigned.Blob))
}

func TestEncodeAccountID(t *testing.T) {
	var id [hashing.AccountIDSize]byte
	copy(id[:], mustHex(t, "3680F8503E56B53239FE0F5EB782285B3FE4DDE8"))
	assert.Equal(t, signInAddress, EncodeAccountID(id))

	var zero [hashing.AccountIDSize]byte
	assert.Equal(t, "rrrrrrrrrrrrrrrrrrrrrhoLvTp", EncodeAccountID(zero))
}

func TestAddressFromPublicKey(t *testing.T) {
	assert.Equal(t, signInAddress, AddressFromPublicKey(mustHex(t, signInPubKey)))
}

func TestDecodeAccountID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		id, err := DecodeAccountID(signInAddress)
		require.NoError(t, err)
		assert.Equal(t, signInAddress, EncodeAccountID(id))
	})

	t.Run("known vector", func(t *testing.T) {
		assert.True(t, IsValidAddress("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"))
	})

	t.Run("bad checksum", func(t *testing.T) {
		_, err := DecodeAccountID("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTi")
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("not base58", func(t *testing.T) {
		_, err := DecodeAccountID("0xabc")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := DecodeAccountID("rrrr")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}
