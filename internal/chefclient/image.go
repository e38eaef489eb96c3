package chefclient

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes bounds the size of a photo accepted for recognition.
const MaxImageBytes = 10 << 20

// ErrNotAnImage is returned by EncodeImage for content that is not an image.
var ErrNotAnImage = errors.New("the selected file is not an image")

// ErrImageTooLarge is returned by EncodeImage for files over MaxImageBytes.
var ErrImageTooLarge = errors.New("the selected image is too large")

// EncodeImage reads r to the end and returns its content as a data URL
// (data:<mime>;base64,<payload>). The MIME type is sniffed from the bytes.
func EncodeImage(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w (detected %s)", ErrNotAnImage, mtype.String())
	}

	return "data:" + mtype.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
