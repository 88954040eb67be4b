package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/clipboard/execclipboard"
	"github.com/maskgif/maskgif/config"
	"github.com/maskgif/maskgif/config/awsconfig"
	"github.com/maskgif/maskgif/config/gcloudconfig"
	"github.com/maskgif/maskgif/encoder/gifencoder"
	"github.com/maskgif/maskgif/loader/maskloader"
	"github.com/maskgif/maskgif/loader/proxyloader"
	"github.com/maskgif/maskgif/processor/maskprocessor"
	"github.com/maskgif/maskgif/searcher/e621searcher"
	"github.com/maskgif/maskgif/storage/filestorage"
	"go.uber.org/zap"
)

type CLI struct {
	Globals Globals `embed:""`

	Generate GenerateCmd `cmd:"" default:"withargs" help:"Generate one masked GIF from a random e621 post."`
	Serve    ServeCmd    `cmd:"" help:"Run the HTTP server, remaining args are server flags."`
}

type Globals struct {
	Debug   bool             `help:"Debug logs on stderr." short:"d"`
	Version kong.VersionFlag `help:"Show version."`
}

func (g Globals) logger(stderr io.Writer) *zap.Logger {
	if !g.Debug {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

type GenerateCmd struct {
	Rating  string        `help:"Content rating." enum:"s,q,e,safe,questionable,explicit" default:"safe" short:"r"`
	Output  string        `help:"Output directory, or '-' for stdout." short:"o" default:"."`
	Copy    bool          `help:"Copy the GIF to the system clipboard." short:"c"`
	Mask    string        `help:"Overlay mask image path or URL." default:"${mask}"`
	Proxy   string        `help:"CORS proxy prefix." name:"proxy-url" default:"${proxy}"`
	Direct  bool          `help:"Load images from their source when --proxy-url is empty."`
	APIURL  string        `help:"e621 posts API endpoint." name:"api-url" default:"${api}"`
	Width   int           `help:"Maximum output width." name:"max-width" default:"${width}"`
	Quality int           `help:"GIF palette sampling interval 1-30." default:"${quality}"`
	Timeout time.Duration `help:"Overall timeout." default:"2m"`

	Tags []string `arg:"" optional:"" name:"tags" help:"Search tags."`
}

func (c *GenerateCmd) Run(ctx *kong.Context, cli *CLI) error {
	rating, err := maskgif.ParseRating(c.Rating)
	if err != nil {
		return err
	}
	logger := cli.Globals.logger(ctx.Stderr)
	defer func() { _ = logger.Sync() }()

	options := []maskgif.Option{
		maskgif.WithLogger(logger),
		maskgif.WithDebug(cli.Globals.Debug),
		maskgif.WithSearcher(e621searcher.New(
			e621searcher.WithAPIURL(c.APIURL),
			e621searcher.WithLogger(logger),
		)),
		maskgif.WithLoader(proxyloader.New(
			proxyloader.WithProxyURL(c.Proxy),
			proxyloader.WithDirect(c.Direct),
			proxyloader.WithLogger(logger),
		)),
		maskgif.WithMask(maskloader.New(
			maskloader.WithPath(c.Mask),
			maskloader.WithLogger(logger),
		)),
		maskgif.WithProcessor(maskprocessor.New(
			maskprocessor.WithMaxWidth(c.Width),
			maskprocessor.WithLogger(logger),
		)),
		maskgif.WithEncoder(gifencoder.New(
			gifencoder.WithQuality(c.Quality),
			gifencoder.WithLogger(logger),
		)),
	}
	if c.Output != "-" {
		options = append(options, maskgif.WithStorages(filestorage.New(c.Output,
			filestorage.WithMkdirPermission("0755"),
			filestorage.WithWritePermission("0644"),
		)))
	}
	if c.Copy {
		options = append(options, maskgif.WithClipboard(execclipboard.New(
			execclipboard.WithLogger(logger),
		)))
	}
	app := maskgif.New(options...)

	bg, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	bg, cancel = context.WithTimeout(bg, c.Timeout)
	defer cancel()

	if err = app.Startup(bg); err != nil {
		return err
	}
	defer func() { _ = app.Shutdown(context.Background()) }()

	res, err := app.Generate(bg, maskgif.Query{
		Tags:   strings.Join(c.Tags, " "),
		Rating: rating,
	})
	if err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		_, _ = fmt.Fprintf(ctx.Stderr, "warning: %s\n", warning)
	}
	if c.Copy {
		if err = app.Copy(bg); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(ctx.Stderr, "copied to clipboard")
	}
	d, err := app.Download(bg)
	if err != nil {
		return err
	}
	if c.Output == "-" {
		buf, err := d.Blob.ReadAll()
		if err != nil {
			return err
		}
		_, err = ctx.Stdout.Write(buf)
		return err
	}
	_, _ = fmt.Fprintf(ctx.Stdout, "%s\t%s\t%dx%d\n",
		filepath.Join(c.Output, d.Filename), res.PostID(), res.Width, res.Height)
	return nil
}

type ServeCmd struct {
	Args []string `arg:"" optional:"" passthrough:"" help:"Server flags, see serve -- -help."`
}

func (c *ServeCmd) Run(_ *kong.Context, cli *CLI) error {
	args := c.Args
	if cli.Globals.Debug {
		args = append([]string{"-debug"}, args...)
	}
	if srv := config.CreateServer(args, awsconfig.WithAWS, gcloudconfig.WithGCloud); srv != nil {
		srv.Run()
	}
	return nil
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	var cli CLI
	exited := errors.New("exit")
	parser, err := kong.New(&cli,
		kong.Name("maskgifcli"),
		kong.Description("Masks a random e621 post into a transparent GIF."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) {
			code = c
			panic(exited)
		}),
		kong.Vars{
			"version": maskgif.Version,
			"mask":    maskloader.DefaultMaskPath,
			"proxy":   proxyloader.DefaultProxyURL,
			"api":     e621searcher.DefaultAPIURL,
			"width":   fmt.Sprint(maskprocessor.DefaultMaxWidth),
			"quality": fmt.Sprint(gifencoder.DefaultQuality),
		},
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "maskgifcli: %v\n", err)
		return 1
	}
	defer func() {
		if r := recover(); r != nil && r != exited {
			panic(r)
		}
	}()
	ctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "maskgifcli: %v\n", err)
		return 2
	}
	if err = ctx.Run(&cli); err != nil {
		_, _ = fmt.Fprintf(stderr, "maskgifcli: %v\n", err)
		if errors.Is(err, maskgif.ErrNoResults) {
			return 3
		}
		return 1
	}
	return 0
}
