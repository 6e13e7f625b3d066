// Package images inspects uploaded images: content type, dimensions and a
// BlurHash placeholder.
package images

import (
	"bufio"
	"bytes"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// sniffLen is how many leading bytes content detection looks at.
	sniffLen = 3072

	// headerLen is how much of the stream is buffered to read dimensions
	// before committing to a full decode.
	headerLen = 64 << 10

	// maxPixels bounds the images that get fully decoded for a BlurHash.
	maxPixels = 50_000_000
)

// Info describes a decoded image.
type Info struct {
	Format   string
	Width    int
	Height   int
	BlurHash string
}

// DetectContentType sniffs the MIME type from the first bytes of a file.
// fallback is returned when detection finds nothing more specific than
// application/octet-stream.
func DetectContentType(head []byte, fallback string) string {
	mt := mimetype.Detect(head)
	if mt.Is("application/octet-stream") && fallback != "" {
		return fallback
	}
	return mt.String()
}

// Sniff wraps r so the content type can be read without consuming the stream.
func Sniff(r io.Reader, fallback string) (io.Reader, string) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	return br, DetectContentType(head, fallback)
}

// IsImage reports whether contentType names an image format this package can decode.
func IsImage(contentType string) bool {
	ct, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(strings.ToLower(ct)) {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return true
	}
	return false
}

// Inspection decodes an image while it streams to storage.
type Inspection struct {
	pw   *io.PipeWriter
	done chan struct{}
	info *Info
}

// Inspect returns a reader that yields the bytes of r unchanged and feeds
// them to a decoder running alongside. Call Finish once the returned reader
// has been consumed.
func Inspect(r io.Reader) (io.Reader, *Inspection) {
	pr, pw := io.Pipe()
	in := &Inspection{pw: pw, done: make(chan struct{})}

	go func() {
		defer close(in.done)
		in.info = decode(pr)
		// Drain so the writer side never blocks.
		_, _ = io.Copy(io.Discard, pr)
	}()

	return io.TeeReader(r, pw), in
}

// Finish ends the inspection and returns what was learned. It returns nil
// when the stream was not a decodable image or when err is non-nil. err is
// the outcome of consuming the reader returned by Inspect.
func (in *Inspection) Finish(err error) *Info {
	if err != nil {
		_ = in.pw.CloseWithError(err)
	} else {
		_ = in.pw.Close()
	}
	<-in.done
	if err != nil {
		return nil
	}
	return in.info
}

func decode(r io.Reader) *Info {
	br := bufio.NewReaderSize(r, headerLen)
	head, _ := br.Peek(headerLen)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return nil
	}
	info := &Info{Format: format, Width: cfg.Width, Height: cfg.Height}
	if cfg.Width*cfg.Height > maxPixels {
		return info
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return info
	}
	if hash, err := ComputeBlurHash(img); err == nil {
		info.BlurHash = hash
	}
	return info
}
