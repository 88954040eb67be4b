package maskprocessor

import (
	"context"
	"image"
	"math"

	"github.com/maskgif/maskgif"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// DefaultMaxWidth surface width limit
const DefaultMaxWidth = 600

// MaskProcessor composites the source image and the mask onto a surface
type MaskProcessor struct {
	MaxWidth int
	Logger   *zap.Logger
	Debug    bool

	scaler draw.Scaler
}

// New creates MaskProcessor
func New(options ...Option) *MaskProcessor {
	p := &MaskProcessor{
		MaxWidth: DefaultMaxWidth,
		Logger:   zap.NewNop(),
		scaler:   draw.CatmullRom,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Process implements maskgif.Processor interface
func (p *MaskProcessor) Process(ctx context.Context, src, mask image.Image, post *maskgif.Post) (*maskgif.Surface, error) {
	if mask == nil {
		return nil, maskgif.ErrMaskNotReady
	}
	if src == nil {
		return nil, maskgif.ErrInvalid.WithDetail("nil source")
	}
	sb := src.Bounds()
	// post dimensions size the surface, the loaded image is cropped to fit
	tw, th := sb.Dx(), sb.Dy()
	if post != nil && post.Width > 0 && post.Height > 0 {
		tw, th = post.Width, post.Height
	}
	w, h := SurfaceSize(tw, th, p.MaxWidth)
	surface := maskgif.NewSurface(w, h)
	surface.Clear()
	if w == 0 || h == 0 {
		return surface, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	crop := CropRect(sb.Dx(), sb.Dy(), w, h).Add(sb.Min)
	p.scaler.Scale(surface.RGBA, surface.Rect, src, crop, draw.Src, nil)

	mb := mask.Bounds()
	if !mb.Empty() {
		mh := int(math.Round(float64(w) * float64(mb.Dy()) / float64(mb.Dx())))
		if mh > 0 {
			scaled := image.NewRGBA(image.Rect(0, 0, w, mh))
			p.scaler.Scale(scaled, scaled.Rect, mask, mb, draw.Src, nil)
			DestinationOut(surface.RGBA, scaled)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !surface.Snapshot() {
		p.Logger.Warn("snapshot unavailable, surface will not be restored")
	}
	surface.Keyed = maskgif.KeyTransparency(surface.Pix, maskgif.ChromaKey)
	if p.Debug {
		var id int64
		if post != nil {
			id = post.ID
		}
		p.Logger.Debug("composite",
			zap.Int64("post_id", id),
			zap.Int("width", w),
			zap.Int("height", h),
			zap.Any("crop", crop),
			zap.Int("keyed", surface.Keyed))
	}
	return surface, nil
}

// SurfaceSize returns surface dimensions for a source of width x height.
// Sources wider than maxWidth are scaled down proportionally.
func SurfaceSize(width, height, maxWidth int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if maxWidth > 0 && width > maxWidth {
		ratio := float64(maxWidth) / float64(width)
		return int(math.Round(float64(width) * ratio)), int(math.Round(float64(height) * ratio))
	}
	return width, height
}

// CropRect returns the centered source window matching the dstW:dstH aspect ratio
func CropRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(dstW) / float64(dstH)
	cropW, cropH := srcW, srcH
	switch {
	case srcAspect > dstAspect:
		cropW = int(math.Round(float64(srcH) * dstAspect))
	case srcAspect < dstAspect:
		cropH = int(math.Round(float64(srcW) / dstAspect))
	}
	cropW = max(1, min(cropW, srcW))
	cropH = max(1, min(cropH, srcH))
	x := (srcW - cropW) / 2
	y := (srcH - cropH) / 2
	return image.Rect(x, y, x+cropW, y+cropH)
}

// DestinationOut erases dst wherever mask is opaque.
// Each covered dst pixel is scaled by the inverse mask alpha, dst stays premultiplied.
// The mask is aligned at the dst origin.
func DestinationOut(dst *image.RGBA, mask *image.RGBA) {
	r := dst.Rect.Intersect(mask.Rect.Add(dst.Rect.Min.Sub(mask.Rect.Min)))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		mi := mask.PixOffset(r.Min.X-dst.Rect.Min.X+mask.Rect.Min.X, y-dst.Rect.Min.Y+mask.Rect.Min.Y)
		for x := r.Min.X; x < r.Max.X; x, di, mi = x+1, di+4, mi+4 {
			ma := uint32(mask.Pix[mi+3])
			if ma == 0 {
				continue
			}
			inv := 0xff - ma
			for c := 0; c < 4; c++ {
				dst.Pix[di+c] = uint8((uint32(dst.Pix[di+c])*inv + 0x7f) / 0xff)
			}
		}
	}
}
