package exifdata_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/G1enB1and/MediaManagerX/codec/exifdata"
	"github.com/G1enB1and/MediaManagerX/data"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := exifdata.Encode("a comment", "sunset;beach")

	fields, err := exifdata.Decode(payload)
	require.NoError(t, err)

	assert.Equal(t, "a comment", fields.XPComment)
	assert.Equal(t, "a comment", fields.ImageDescription)
	assert.Equal(t, "sunset;beach", fields.XPKeywords)
	assert.Empty(t, fields.Software)
}

func TestEncodeUTF16Terminator(t *testing.T) {
	encoded := exifdata.EncodeUTF16LE("hi")
	// "hi" as UTF-16LE plus an explicit 2-byte null terminator.
	assert.Equal(t, []byte{'h', 0, 'i', 0, 0, 0}, encoded)
	assert.Equal(t, "hi", exifdata.DecodeUTF16LE(encoded))
}

func TestEncodeNonASCIIComment(t *testing.T) {
	payload := exifdata.Encode("héllo wörld", "")

	fields, err := exifdata.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", fields.XPComment)
}

func TestDecodeEmptyAndShort(t *testing.T) {
	fields, err := exifdata.Decode(nil)
	assert.ErrorIs(t, err, data.ErrCorruptMetadata)
	assert.True(t, fields.Empty())

	fields, err = exifdata.Decode([]byte("XX\x00\x00\x00\x00\x00\x00"))
	assert.ErrorIs(t, err, data.ErrCorruptMetadata)
	assert.True(t, fields.Empty())
}

func TestDecodeTruncatedIFD(t *testing.T) {
	payload := exifdata.Encode("comment", "tags")
	_, err := exifdata.Decode(payload[:10])
	assert.True(t, errors.Is(err, data.ErrCorruptMetadata))
}

func TestEncodeEmptyBundleYieldsNoEntries(t *testing.T) {
	payload := exifdata.Encode("", "")

	fields, err := exifdata.Decode(payload)
	require.NoError(t, err)
	assert.True(t, fields.Empty())
}
