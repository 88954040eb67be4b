package config

import (
	"flag"
	"strings"

	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/clipboard/execclipboard"
)

func withClipboard(fs *flag.FlagSet, cb Callback) maskgif.Option {
	var (
		clipboardCommand = fs.String("clipboard-command", "",
			"Clipboard command reading image/gif from stdin e.g. \"xclip -selection clipboard -t image/gif -i\". Detects wl-copy or xclip if empty")
		clipboardDisable = fs.Bool("clipboard-disable", false,
			"Disable clipboard copy")
	)
	logger, _ := cb()
	return func(app *maskgif.App) {
		if *clipboardDisable {
			return
		}
		options := []execclipboard.Option{
			execclipboard.WithLogger(logger),
		}
		if fields := strings.Fields(*clipboardCommand); len(fields) > 0 {
			options = append(options, execclipboard.WithCommands(execclipboard.Command{
				Name: fields[0],
				Args: fields[1:],
			}))
		}
		app.Clipboard = execclipboard.New(options...)
	}
}
