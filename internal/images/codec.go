// Package images turns an uploaded image file into the opaque string stored
// as a product's image reference: either an embedded data URL or the public
// URL of an uploaded object.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the image size ceiling used when none is configured.
const DefaultMaxBytes int64 = 2 << 20

var (
	// ErrFileTooLarge is returned for files above the size ceiling.
	ErrFileTooLarge = errors.New("image file is too large")
	// ErrNotAnImage is returned when the content is not a recognised image type.
	ErrNotAnImage = errors.New("file is not an image")
)

// File is one selected image.
type File interface {
	Filename() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Codec converts a file into an image reference.
type Codec interface {
	Encode(ctx context.Context, f File) (string, error)
}

// CheckSize rejects files larger than max bytes.
func CheckSize(f File, max int64) error {
	if max > 0 && f.Size() > max {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, f.Size(), max)
	}
	return nil
}

type multipartFile struct {
	fh *multipart.FileHeader
}

// FromMultipart adapts an uploaded form file.
func FromMultipart(fh *multipart.FileHeader) File {
	return multipartFile{fh: fh}
}

func (m multipartFile) Filename() string { return m.fh.Filename }
func (m multipartFile) Size() int64      { return m.fh.Size }
func (m multipartFile) Open() (io.ReadCloser, error) {
	return m.fh.Open()
}

// readImage reads at most max bytes of f and sniffs its type.
func readImage(f File, max int64) ([]byte, *mimetype.MIME, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	defer rc.Close()

	r := io.Reader(rc)
	if max > 0 {
		r = io.LimitReader(rc, max+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read image: %w", err)
	}
	if max > 0 && int64(len(data)) > max {
		return nil, nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, max)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}
	return data, mt, nil
}

// DataURLCodec embeds the image as a base64 data URL.
type DataURLCodec struct {
	MaxBytes int64
}

// Encode returns "data:<mime>;base64,<payload>".
func (c DataURLCodec) Encode(_ context.Context, f File) (string, error) {
	data, mt, err := readImage(f, c.MaxBytes)
	if err != nil {
		return "", err
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
