package visuals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "flood, rain Kolkata", BuildQuery([]string{"flood, rain"}, "Kolkata"))
	assert.Equal(t, "cyclone storm Puri, Odisha", BuildQuery([]string{"cyclone", "storm"}, "Puri, Odisha"))
	assert.Equal(t, "Chennai", BuildQuery(nil, "Chennai"))
}

func TestLocationPrefix(t *testing.T) {
	tests := []struct {
		location string
		expected string
	}{
		{"Kolkata", "kolkata"},
		{"Kolkata, West Bengal, India", "kolkata"},
		{"New Delhi", "new_delhi"},
		{"88.3639,22.5726", "88.3639"},
		{"  Port Blair , Andaman", "port_blair"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"Bhubaneswar/Cuttack", "bhubaneswar_cuttack"},
		{"Unknown", "unknown"},
		{"", "unknown"},
		{", India", "unknown"},
		{"São Paulo", "são_paulo"},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.expected, LocationPrefix(tt.location))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "kolkata_image_3.jpg", FileName("kolkata", 3, "jpg"))
}

func TestVerifyImage(t *testing.T) {
	format, err := VerifyImage(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	format, err = VerifyImage(jpegBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	for name, data := range map[string][]byte{
		"empty":     nil,
		"html":      []byte("<!DOCTYPE html><html></html>"),
		"truncated": pngBytes(t)[:30],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := VerifyImage(data)
			assert.True(t, errors.Is(err, ErrInvalidImage))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "jpg", Extension("jpeg"))
	assert.Equal(t, "tif", Extension("tiff"))
	assert.Equal(t, "png", Extension("png"))
	assert.Equal(t, "webp", Extension("webp"))
}
