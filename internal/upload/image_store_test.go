package upload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

var jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

var webpHeader = append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 16)...)

func setupImageStore(t *testing.T) *ImageStore {
	t.Helper()
	s, err := NewImageStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestSave_Accepts(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "png", filename: "tea.png", data: pngHeader},
		{name: "jpg", filename: "tea.jpg", data: jpegHeader},
		{name: "jpeg upper case", filename: "TEA.JPEG", data: jpegHeader},
		{name: "webp", filename: "tea.webp", data: webpHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupImageStore(t)

			ref, err := s.Save(bytes.NewReader(tt.data), tt.filename)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(ref, URLPrefix))
			assert.Equal(t, strings.ToLower(filepath.Ext(tt.filename)), filepath.Ext(ref))

			stored, err := os.ReadFile(filepath.Join(s.Dir(), filepath.Base(ref)))
			require.NoError(t, err)
			assert.Equal(t, tt.data, stored)
		})
	}
}

func TestSave_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "gif extension", filename: "anim.gif", data: []byte("GIF89a......")},
		{name: "no extension", filename: "image", data: pngHeader},
		{name: "text with png extension", filename: "fake.png", data: []byte("hello, this is not an image")},
		{name: "too large", filename: "big.png", data: append(append([]byte{}, pngHeader...), make([]byte, MaxImageSize)...)},
		{name: "empty", filename: "empty.png", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupImageStore(t)

			ref, err := s.Save(bytes.NewReader(tt.data), tt.filename)
			assert.ErrorIs(t, err, ErrInvalidImage)
			assert.Empty(t, ref)

			entries, err := os.ReadDir(s.Dir())
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestSave_ExactlyMaxSize(t *testing.T) {
	s := setupImageStore(t)
	data := append(append([]byte{}, pngHeader...), make([]byte, MaxImageSize-len(pngHeader))...)

	_, err := s.Save(bytes.NewReader(data), "max.png")
	assert.NoError(t, err)
}

func TestSave_UniqueNames(t *testing.T) {
	s := setupImageStore(t)

	a, err := s.Save(bytes.NewReader(pngHeader), "same.png")
	require.NoError(t, err)
	b, err := s.Save(bytes.NewReader(pngHeader), "same.png")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestRemove(t *testing.T) {
	s := setupImageStore(t)

	ref, err := s.Save(bytes.NewReader(pngHeader), "tea.png")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ref))
	_, err = os.Stat(filepath.Join(s.Dir(), filepath.Base(ref)))
	assert.True(t, os.IsNotExist(err))

	// Second removal and foreign references are no-ops
	assert.NoError(t, s.Remove(ref))
	assert.NoError(t, s.Remove("https://cdn.example.com/a.png"))
	assert.NoError(t, s.Remove(""))
}
