package config

import (
	"flag"

	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/storage/filestorage"
)

func withFileStorage(fs *flag.FlagSet, cb Callback) maskgif.Option {
	var (
		fileSafeChars = fs.String("file-safe-chars", "",
			"File safe characters to be excluded from key escape")
		fileStorageBaseDir = fs.String("file-storage-base-dir", "",
			"Base directory for saving downloads. Enable File Storage only if this value present")
		fileStoragePathPrefix = fs.String("file-storage-path-prefix", "",
			"Base path prefix for File Storage")
		fileStorageMkdirPermission = fs.String("file-storage-mkdir-permission", "0755",
			"File Storage mkdir permission")
		fileStorageWritePermission = fs.String("file-storage-write-permission", "0666",
			"File Storage write permission")
		fileStorageExpiration = fs.Duration("file-storage-expiration", 0,
			"File Storage expiration duration e.g. 24h. Default no expiration")

		_, _ = cb()
	)
	return func(app *maskgif.App) {
		if *fileStorageBaseDir != "" {
			// activate File Storage only if base dir config presents
			app.Storages = append(app.Storages,
				filestorage.New(
					*fileStorageBaseDir,
					filestorage.WithPathPrefix(*fileStoragePathPrefix),
					filestorage.WithMkdirPermission(*fileStorageMkdirPermission),
					filestorage.WithWritePermission(*fileStorageWritePermission),
					filestorage.WithSafeChars(*fileSafeChars),
					filestorage.WithExpiration(*fileStorageExpiration),
				),
			)
		}
	}
}
