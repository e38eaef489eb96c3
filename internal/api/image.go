package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/nfnt/resize"
)

// maxImageWidth bounds the width of images sent to the vision model.
const maxImageWidth = 800

var errNoImagePayload = errors.New("image is not a base64 data URL")

// decodeDataURL returns the bytes after the comma of a data URL.
func decodeDataURL(dataURL string) ([]byte, error) {
	_, payload, ok := strings.Cut(dataURL, ",")
	if !ok || payload == "" {
		return nil, errNoImagePayload
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}

// prepareImage decodes imageData, scales it down to maxImageWidth when it is
// wider, and re-encodes it. JPEG stays JPEG; every other format becomes PNG.
// It returns the format name of the result.
func prepareImage(imageData []byte) (string, []byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = resize.Resize(maxImageWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	default:
		format = "png"
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return format, buf.Bytes(), nil
}
