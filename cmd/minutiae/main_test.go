package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fingerprint-server/internal/imageio"
	"github.com/high-horse/fingerprint-server/internal/template"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func fixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mask := image.NewGray(image.Rect(0, 0, 80, 80))
	skeleton := image.NewGray(image.Rect(0, 0, 80, 80))
	for y := 10; y < 70; y++ {
		for x := 10; x < 70; x++ {
			mask.Pix[y*mask.Stride+x] = 255
		}
	}
	for x := 25; x < 55; x++ {
		skeleton.Pix[40*skeleton.Stride+x] = 255
	}
	writePNG(t, filepath.Join(dir, "mask.png"), mask)
	writePNG(t, filepath.Join(dir, "skeleton.png"), skeleton)
	writePNG(t, filepath.Join(dir, "image.png"), mask)
	return dir
}

func TestExtractAndCompare(t *testing.T) {
	dir := fixtures(t)
	path := func(name string) string { return filepath.Join(dir, name) }

	var out bytes.Buffer
	for _, id := range []string{"a", "b"} {
		err := run([]string{"extract",
			"-image", path("image.png"),
			"-skeleton", path("skeleton.png"),
			"-mask", path("mask.png"),
			"-id", id,
			"-group", "7",
			"-out", path(id + ".cbor"),
			"-mask-out", path("mask.pgm"),
		}, &out)
		require.NoError(t, err)
	}
	assert.Contains(t, out.String(), "a: 2 minutiae, shift (10,10)")

	data, err := os.ReadFile(path("a.cbor"))
	require.NoError(t, err)
	set, err := template.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "7", set.GroupID)
	assert.Equal(t, 15, set.Minutiae[0].X)

	mask, err := imageio.Load(path("mask.pgm"))
	require.NoError(t, err)
	assert.Equal(t, 80, mask.Bounds().Dx())

	out.Reset()
	require.NoError(t, run([]string{"compare", path("a.cbor"), path("b.cbor")}, &out))
	assert.Contains(t, out.String(), "a b 100.00")
}

func TestUsage(t *testing.T) {
	assert.ErrorIs(t, run(nil, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run([]string{"frobnicate"}, &bytes.Buffer{}), errUsage)
	assert.Error(t, run([]string{"extract", "-id", "x"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"compare", "one.cbor"}, &bytes.Buffer{}))
}
