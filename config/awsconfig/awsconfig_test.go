package awsconfig

import (
	"context"
	"testing"
	"time"

	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/config"
	"github.com/maskgif/maskgif/storage/filestorage"
	"github.com/maskgif/maskgif/storage/s3storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage(t *testing.T) {
	srv := config.CreateServer([]string{
		"-aws-region", "asdf",
		"-aws-access-key-id", "asdf",
		"-aws-secret-access-key", "asdf",
		"-s3-endpoint", "http://localhost:9000",
		"-s3-force-path-style",
		"-s3-safe-chars", "!",

		"-s3-storage-bucket", "a",
		"-s3-storage-base-dir", "foo",
		"-s3-storage-path-prefix", "abcd",
		"-s3-storage-acl", "private",
		"-s3-storage-class", "GLACIER",
		"-s3-storage-expiration", "24h",
	}, WithAWS)
	app := srv.App.(*maskgif.App)
	require.Len(t, app.Storages, 1)
	storage := app.Storages[0].(*s3storage.S3Storage)
	assert.Equal(t, "a", storage.Bucket)
	assert.Equal(t, "/foo/", storage.BaseDir)
	assert.Equal(t, "/abcd/", storage.PathPrefix)
	assert.Equal(t, "!", storage.SafeChars)
	assert.Equal(t, "private", storage.ACL)
	assert.Equal(t, "GLACIER", storage.StorageClass)
	assert.Equal(t, "http://localhost:9000", storage.Endpoint)
	assert.True(t, storage.ForcePathStyle)
	assert.Equal(t, time.Hour*24, storage.Expiration)

	creds, err := storage.Client.Options().Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asdf", creds.AccessKeyID)
	assert.Equal(t, "asdf", storage.Client.Options().Region)
}

func TestS3StorageAfterFileStorage(t *testing.T) {
	srv := config.CreateServer([]string{
		"-aws-region", "asdf",
		"-aws-access-key-id", "asdf",
		"-aws-secret-access-key", "asdf",
		"-s3-storage-bucket", "a",
		"-file-storage-base-dir", "./foo",
	}, WithAWS)
	app := srv.App.(*maskgif.App)
	require.Len(t, app.Storages, 2)
	assert.IsType(t, &filestorage.FileStorage{}, app.Storages[0])
	assert.IsType(t, &s3storage.S3Storage{}, app.Storages[1])
}

func TestS3StorageMissingConfig(t *testing.T) {
	srv := config.CreateServer([]string{
		"-aws-access-key-id", "asdf",
		"-aws-secret-access-key", "asdf",
		"-s3-storage-bucket", "a",
	}, WithAWS)
	assert.Empty(t, srv.App.(*maskgif.App).Storages)

	srv = config.CreateServer([]string{
		"-aws-region", "asdf",
	}, WithAWS)
	assert.Empty(t, srv.App.(*maskgif.App).Storages)
}
