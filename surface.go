package maskgif

import (
	"image"
	"image/color"
	"sync"
)

// ChromaKey opaque color substituted for any non fully opaque pixel
var ChromaKey = color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}

// Surface drawing surface of a single pipeline run
type Surface struct {
	*image.RGBA

	// Keyed number of pixels rewritten to the chroma key
	Keyed int

	l        sync.Mutex
	snapshot []uint8
}

// NewSurface creates a cleared surface of width x height
func NewSurface(width, height int) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Surface{RGBA: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Clear resets every pixel to transparent
func (s *Surface) Clear() {
	s.l.Lock()
	clear(s.Pix)
	s.l.Unlock()
}

// Snapshot captures the current pixels for later restoration
func (s *Surface) Snapshot() bool {
	s.l.Lock()
	defer s.l.Unlock()
	if len(s.Pix) == 0 {
		s.snapshot = nil
		return false
	}
	s.snapshot = append(s.snapshot[:0], s.Pix...)
	return true
}

// HasSnapshot reports whether Restore would have any effect
func (s *Surface) HasSnapshot() bool {
	s.l.Lock()
	defer s.l.Unlock()
	return len(s.snapshot) > 0
}

// Restore copies the snapshot back to the surface.
// Returns false when no snapshot was captured or sizes mismatch.
func (s *Surface) Restore() bool {
	s.l.Lock()
	defer s.l.Unlock()
	if len(s.snapshot) == 0 || len(s.snapshot) != len(s.Pix) {
		return false
	}
	copy(s.Pix, s.snapshot)
	return true
}

// Frame returns a copy of the current pixels
func (s *Surface) Frame() *image.RGBA {
	s.l.Lock()
	defer s.l.Unlock()
	frame := image.NewRGBA(s.Rect)
	copy(frame.Pix, s.Pix)
	return frame
}

// Width surface width
func (s *Surface) Width() int {
	return s.Rect.Dx()
}

// Height surface height
func (s *Surface) Height() int {
	return s.Rect.Dy()
}

// KeyTransparency rewrites every pixel with alpha below 255 to key in place.
// Fully opaque pixels are left unchanged. Returns number of rewritten pixels.
func KeyTransparency(pix []uint8, key color.RGBA) (n int) {
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] < 0xff {
			pix[i+0] = key.R
			pix[i+1] = key.G
			pix[i+2] = key.B
			pix[i+3] = 0xff
			n++
		}
	}
	return
}
