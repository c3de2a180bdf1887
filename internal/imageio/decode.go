// Package imageio decodes fingerprint, mask and skeleton images into the
// grids used by the extractor.
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	wsq "github.com/jtejido/go-wsq"
	"github.com/spakin/netpbm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	ErrUnsupported = errors.New("imageio: unsupported image format")
	ErrBadPayload  = errors.New("imageio: malformed image payload")
)

// Decode sniffs data and decodes it. Netpbm and WSQ are recognised by their
// magic bytes; anything else goes through the registered image decoders
// (PNG, JPEG, GIF, TIFF and BMP).
func Decode(data []byte) (image.Image, string, error) {
	switch {
	case isNetpbm(data):
		img, err := netpbm.Decode(bytes.NewReader(data), &netpbm.DecodeOptions{Target: netpbm.PGM})
		if err != nil {
			return nil, "", fmt.Errorf("decoding netpbm: %w", err)
		}
		return img, "pnm", nil
	case isWSQ(data):
		img, err := wsq.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("decoding wsq: %w", err)
		}
		return img, "wsq", nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

func isNetpbm(data []byte) bool {
	return len(data) > 2 && data[0] == 'P' && data[1] >= '1' && data[1] <= '6'
}

// WSQ files open with the SOI marker 0xFFA0.
func isWSQ(data []byte) bool {
	return len(data) > 2 && data[0] == 0xFF && data[1] == 0xA0
}

// Load reads and decodes an image file.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeDataURL turns a base64 payload, optionally prefixed with a
// "data:<mime>;base64," header, into raw image bytes.
func DecodeDataURL(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: missing data url separator", ErrBadPayload)
		}
		meta := parts[0]
		payload = parts[1]
		if !strings.HasPrefix(meta, "data:image/") && !strings.HasPrefix(meta, "data:application/octet-stream") {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, strings.TrimPrefix(meta, "data:"))
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadPayload)
	}
	return decoded, nil
}

// DecodeBase64 is DecodeDataURL followed by Decode.
func DecodeBase64(payload string) (image.Image, error) {
	data, err := DecodeDataURL(payload)
	if err != nil {
		return nil, err
	}
	img, _, err := Decode(data)
	return img, err
}

// EncodePGM writes img as a binary PGM.
func EncodePGM(w io.Writer, img image.Image) error {
	return netpbm.Encode(w, img, &netpbm.EncodeOptions{Format: netpbm.PGM, MaxValue: 255})
}
