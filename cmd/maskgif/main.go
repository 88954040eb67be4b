package main

import (
	"os"

	"github.com/maskgif/maskgif/config"
	"github.com/maskgif/maskgif/config/awsconfig"
	"github.com/maskgif/maskgif/config/gcloudconfig"
)

func main() {
	var server = config.CreateServer(
		os.Args[1:],
		awsconfig.WithAWS,
		gcloudconfig.WithGCloud,
	)
	if server != nil {
		server.Run()
	}
}
