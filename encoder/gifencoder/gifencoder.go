package gifencoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"runtime"
	"time"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/maskgif/maskgif"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultQuality palette sampling stride, 1 samples every pixel
	DefaultQuality = 5
	// DefaultDelay frame display delay
	DefaultDelay = 200 * time.Millisecond

	maxQuality = 30
	maxColors  = 255
)

// GIFEncoder encodes a single keyed frame into a looping GIF.
// Pixels equal to the transparent color map to a dedicated transparent palette slot.
type GIFEncoder struct {
	Workers     int
	Quality     int
	Delay       time.Duration
	Transparent color.RGBA
	Logger      *zap.Logger
	Debug       bool
}

// New creates GIFEncoder
func New(options ...Option) *GIFEncoder {
	e := &GIFEncoder{
		Workers:     DefaultWorkers(),
		Quality:     DefaultQuality,
		Delay:       DefaultDelay,
		Transparent: maskgif.ChromaKey,
		Logger:      zap.NewNop(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// DefaultWorkers hardware concurrency or 2 if unknown
func DefaultWorkers() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 2
}

// Encode implements maskgif.Encoder interface
func (e *GIFEncoder) Encode(ctx context.Context, frame *image.RGBA) (*maskgif.Blob, error) {
	if err := e.validate(frame); err != nil {
		return nil, err
	}
	start := time.Now()
	palette := e.palette(frame)
	transparent := uint8(len(palette) - 1)
	paletted, err := e.quantize(ctx, frame, palette, transparent)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, &gif.GIF{
		Image:           []*image.Paletted{paletted},
		Delay:           []int{int(e.Delay / (10 * time.Millisecond))},
		Disposal:        []byte{gif.DisposalBackground},
		LoopCount:       0,
		BackgroundIndex: transparent,
		Config: image.Config{
			ColorModel: palette,
			Width:      frame.Rect.Dx(),
			Height:     frame.Rect.Dy(),
		},
	}); err != nil {
		return nil, maskgif.ErrEncode.WithDetail(err.Error())
	}
	if e.Debug {
		e.Logger.Debug("gif encoded",
			zap.Int("colors", len(palette)),
			zap.Int("size", buf.Len()),
			zap.Duration("duration", time.Since(start)))
	}
	blob := maskgif.NewBlobFromBytes(buf.Bytes())
	blob.SetContentType("image/gif")
	return blob, nil
}

func (e *GIFEncoder) validate(frame *image.RGBA) error {
	switch {
	case frame == nil || frame.Rect.Empty():
		return maskgif.ErrEncodeSetup.WithDetail("empty frame")
	case frame.Rect.Dx() > 0xffff || frame.Rect.Dy() > 0xffff:
		return maskgif.ErrEncodeSetup.WithDetail("frame too large")
	case e.Workers < 1:
		return maskgif.ErrEncodeSetup.WithDetail(fmt.Sprintf("invalid workers %d", e.Workers))
	case e.Quality < 1 || e.Quality > maxQuality:
		return maskgif.ErrEncodeSetup.WithDetail(fmt.Sprintf("invalid quality %d", e.Quality))
	case e.Delay < 0:
		return maskgif.ErrEncodeSetup.WithDetail("negative delay")
	}
	return nil
}

// palette median cut palette of the frame with the transparent slot appended last
func (e *GIFEncoder) palette(frame *image.RGBA) color.Palette {
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	p := q.Quantize(make(color.Palette, 0, maxColors), &sampled{frame: frame, stride: e.Quality})
	if len(p) == 0 {
		p = append(p, color.RGBA{A: 0xff})
	}
	if len(p) > maxColors {
		p = p[:maxColors]
	}
	return append(p, color.RGBA{})
}

// quantize maps frame pixels onto palette, split into row bands across workers
func (e *GIFEncoder) quantize(ctx context.Context, frame *image.RGBA, palette color.Palette, transparent uint8) (*image.Paletted, error) {
	b := frame.Rect
	out := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette)
	opaque := palette[:transparent]
	key := e.Transparent

	band := (b.Dy() + e.Workers - 1) / e.Workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers)
	for y0 := 0; y0 < b.Dy(); y0 += band {
		y1 := min(y0+band, b.Dy())
		g.Go(func() error {
			cache := map[uint32]uint8{}
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				si := frame.PixOffset(b.Min.X, b.Min.Y+y)
				di := out.PixOffset(0, y)
				for x := 0; x < b.Dx(); x, si, di = x+1, si+4, di+1 {
					px := frame.Pix[si : si+4 : si+4]
					if px[0] == key.R && px[1] == key.G && px[2] == key.B {
						out.Pix[di] = transparent
						continue
					}
					k := uint32(px[0])<<16 | uint32(px[1])<<8 | uint32(px[2])
					idx, ok := cache[k]
					if !ok {
						idx = uint8(opaque.Index(color.RGBA{R: px[0], G: px[1], B: px[2], A: 0xff}))
						cache[k] = idx
					}
					out.Pix[di] = idx
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// sampled exposes every stride-th pixel of the frame as a single row
type sampled struct {
	frame  *image.RGBA
	stride int
}

func (s *sampled) ColorModel() color.Model {
	return color.RGBAModel
}

func (s *sampled) Bounds() image.Rectangle {
	n := s.frame.Rect.Dx() * s.frame.Rect.Dy()
	return image.Rect(0, 0, (n+s.stride-1)/s.stride, 1)
}

func (s *sampled) At(x, _ int) color.Color {
	i := x * s.stride
	r := s.frame.Rect
	return s.frame.RGBAAt(r.Min.X+i%r.Dx(), r.Min.Y+i/r.Dx())
}
