package gcloudconfig

import (
	"context"
	"flag"

	"cloud.google.com/go/storage"
	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/config"
	"github.com/maskgif/maskgif/storage/gcloudstorage"
)

// WithGCloud Google Cloud Storage download storage config option
func WithGCloud(fs *flag.FlagSet, cb config.Callback) maskgif.Option {
	var (
		gcloudSafeChars = fs.String("gcloud-safe-chars", "",
			"Google Cloud safe characters to be excluded from key escape")

		gcloudStorageBucket = fs.String("gcloud-storage-bucket", "",
			"Bucket name for Google Cloud Storage. Enable Google Cloud Storage only if this value present")
		gcloudStorageBaseDir = fs.String("gcloud-storage-base-dir", "",
			"Base directory for Google Cloud")
		gcloudStoragePathPrefix = fs.String("gcloud-storage-path-prefix", "",
			"Base path prefix for Google Cloud Storage")
		gcloudStorageACL = fs.String("gcloud-storage-acl", "",
			"Upload ACL for Google Cloud Storage")
		gcloudStorageExpiration = fs.Duration("gcloud-storage-expiration", 0,
			"Google Cloud Storage expiration duration e.g. 24h. Default no expiration")

		_, _ = cb()
	)
	return func(app *maskgif.App) {
		if *gcloudStorageBucket == "" {
			return
		}
		// Activate the session, will panic if credentials are missing
		// Google cloud uses credentials from GOOGLE_APPLICATION_CREDENTIALS env file
		gcloudClient, err := storage.NewClient(context.Background())
		if err != nil {
			panic(err)
		}
		app.Storages = append(app.Storages,
			gcloudstorage.New(gcloudClient, *gcloudStorageBucket,
				gcloudstorage.WithPathPrefix(*gcloudStoragePathPrefix),
				gcloudstorage.WithBaseDir(*gcloudStorageBaseDir),
				gcloudstorage.WithACL(*gcloudStorageACL),
				gcloudstorage.WithSafeChars(*gcloudSafeChars),
				gcloudstorage.WithExpiration(*gcloudStorageExpiration),
			),
		)
	}
}
