package config

import (
	"flag"

	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/loader/proxyloader"
	"github.com/maskgif/maskgif/searcher/e621searcher"
)

func withE621Searcher(fs *flag.FlagSet, cb Callback) maskgif.Option {
	var (
		e621APIURL = fs.String("e621-api-url", e621searcher.DefaultAPIURL,
			"e621 posts API endpoint")
		e621UserAgents = fs.String("e621-user-agents", "",
			"User agent pool for e621 API requests, separated by |. Uses built in browser identities if empty")
	)
	logger, _ := cb()
	return func(app *maskgif.App) {
		options := []e621searcher.Option{
			e621searcher.WithAPIURL(*e621APIURL),
			e621searcher.WithLogger(logger),
		}
		if *e621UserAgents != "" {
			options = append(options, e621searcher.WithUserAgents(*e621UserAgents))
		}
		app.Searcher = e621searcher.New(options...)
	}
}

func withProxyLoader(fs *flag.FlagSet, cb Callback) maskgif.Option {
	var (
		proxyURL = fs.String("proxy-url", proxyloader.DefaultProxyURL,
			"CORS proxy prefix, the image URL is appended query escaped")
		proxyDirect = fs.Bool("proxy-direct", false,
			"Load images from their source when proxy-url is empty. Loads fail otherwise")
		proxyAllowedSources = fs.String("proxy-allowed-sources", "",
			"Allowed image hosts whitelist if set. Accept csv wth glob pattern e.g. *.e621.net")
		proxyAccept = fs.String("proxy-accept", "image/*,application/octet-stream",
			"Proxy request Accept header, also validates response Content-Type header")
		proxyMaxAllowedSize = fs.Int("proxy-max-allowed-size", 0,
			"Maximum allowed size in bytes for loading images if set")
		proxyInsecureSkipVerifyTransport = fs.Bool("proxy-insecure-skip-verify-transport", false,
			"Use HTTP transport with InsecureSkipVerify true")
	)
	logger, _ := cb()
	return func(app *maskgif.App) {
		app.Loader = proxyloader.New(
			proxyloader.WithProxyURL(*proxyURL),
			proxyloader.WithDirect(*proxyDirect),
			proxyloader.WithAllowedSources(*proxyAllowedSources),
			proxyloader.WithAccept(*proxyAccept),
			proxyloader.WithMaxAllowedSize(*proxyMaxAllowedSize),
			proxyloader.WithInsecureSkipVerifyTransport(*proxyInsecureSkipVerifyTransport),
			proxyloader.WithLogger(logger),
		)
	}
}
