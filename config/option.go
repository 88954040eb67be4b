package config

import (
	"flag"

	"github.com/maskgif/maskgif"
	"go.uber.org/zap"
)

// Callback parses the flags once every Option has declared its own,
// returns the resulting logger and debug mode
type Callback func() (logger *zap.Logger, isDebug bool)

// Option flag based config option
type Option func(fs *flag.FlagSet, cb Callback) maskgif.Option

// applyOptions transform from config.Option to maskgif.Option
func applyOptions(
	fs *flag.FlagSet, cb Callback, options ...Option,
) (appOptions []maskgif.Option, logger *zap.Logger, isDebug bool) {
	if len(options) == 0 {
		logger, isDebug = cb()
		return
	}
	var last = len(options) - 1
	var called bool
	if options[last] == nil {
		return applyOptions(fs, cb, options[:last]...)
	}
	appOptions = append(appOptions, options[last](fs, func() (*zap.Logger, bool) {
		appOptions, logger, isDebug = applyOptions(fs, cb, options[:last]...)
		called = true
		return logger, isDebug
	}))
	if !called {
		var opts []maskgif.Option
		opts, logger, isDebug = applyOptions(fs, cb, options[:last]...)
		appOptions = append(opts, appOptions...)
		return appOptions, logger, isDebug
	}
	return
}
