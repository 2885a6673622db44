// Package sticker turns photos into sticker-sized WebP images.
package sticker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/m3rciful/superbot/internal/upstream"
)

const (
	// Side is the sticker canvas edge; the longer image side is scaled to it.
	Side = 512
	// DefaultMaxInput caps the accepted photo size.
	DefaultMaxInput = 10 << 20

	service = "sticker"
)

// ReplyFailed is sent when a photo cannot be converted.
const ReplyFailed = "Gagal mengubah foto jadi stiker."

// ErrTooLarge is wrapped when the input exceeds the configured maximum.
var ErrTooLarge = errors.New("sticker: input too large")

// Maker converts images. The zero value is ready to use.
type Maker struct {
	MaxInput int
}

// Make decodes a PNG, JPEG or WebP photo and returns a lossless WebP whose
// longer side is exactly Side pixels.
func (m Maker) Make(ctx context.Context, photo []byte) (out []byte, err error) {
	start := time.Now()
	defer func() {
		upstream.Observe(ctx, service, start, err, slog.Int("bytes", len(out)))
	}()

	limit := m.MaxInput
	if limit <= 0 {
		limit = DefaultMaxInput
	}
	if len(photo) > limit {
		return nil, upstream.Fail(service, 0, ReplyFailed, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(photo)))
	}

	src, format, err := image.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, upstream.Fail(service, 0, ReplyFailed, fmt.Errorf("decode: %w", err))
	}

	dst := image.NewNRGBA(fitRect(src.Bounds().Dx(), src.Bounds().Dy()))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, dst, nil); err != nil {
		return nil, upstream.Fail(service, 0, ReplyFailed, fmt.Errorf("encode %s: %w", format, err))
	}
	return buf.Bytes(), nil
}

// fitRect scales w x h so the longer side equals Side, keeping aspect ratio.
func fitRect(w, h int) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rect(0, 0, Side, Side)
	}
	if w >= h {
		nh := max(1, (h*Side+w/2)/w)
		return image.Rect(0, 0, Side, nh)
	}
	nw := max(1, (w*Side+h/2)/h)
	return image.Rect(0, 0, nw, Side)
}
