package config

import (
	"flag"
	"time"

	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/encoder/gifencoder"
	"github.com/maskgif/maskgif/loader/maskloader"
	"github.com/maskgif/maskgif/processor/maskprocessor"
)

func withMaskProcessor(fs *flag.FlagSet, cb Callback) maskgif.Option {
	var (
		maskPath = fs.String("mask-path", maskloader.DefaultMaskPath,
			"Overlay mask image file path or http URL")
		maxWidth = fs.Int("max-width", maskprocessor.DefaultMaxWidth,
			"Maximum output width in pixels")
	)
	logger, isDebug := cb()
	return func(app *maskgif.App) {
		app.Mask = maskloader.New(
			maskloader.WithPath(*maskPath),
			maskloader.WithLogger(logger),
		)
		app.Processor = maskprocessor.New(
			maskprocessor.WithMaxWidth(*maxWidth),
			maskprocessor.WithLogger(logger),
			maskprocessor.WithDebug(isDebug),
		)
	}
}

func withGIFEncoder(fs *flag.FlagSet, cb Callback) maskgif.Option {
	var (
		gifWorkers = fs.Int("gif-workers", gifencoder.DefaultWorkers(),
			"Number of GIF quantization workers")
		gifQuality = fs.Int("gif-quality", gifencoder.DefaultQuality,
			"GIF palette sampling interval 1-30, lower is better quality and slower")
		gifDelay = fs.Duration("gif-delay", gifencoder.DefaultDelay,
			"GIF frame delay")
	)
	logger, isDebug := cb()
	return func(app *maskgif.App) {
		app.Encoder = gifencoder.New(
			gifencoder.WithWorkers(*gifWorkers),
			gifencoder.WithQuality(*gifQuality),
			gifencoder.WithDelay(roundDelay(*gifDelay)),
			gifencoder.WithLogger(logger),
			gifencoder.WithDebug(isDebug),
		)
	}
}

// GIF delays are stored in hundredths of a second
func roundDelay(d time.Duration) time.Duration {
	return d.Round(time.Millisecond * 10)
}
