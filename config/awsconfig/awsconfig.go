package awsconfig

import (
	"context"
	"flag"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/config"
	"github.com/maskgif/maskgif/storage/s3storage"
)

// WithAWS AWS S3 download storage config option
func WithAWS(fs *flag.FlagSet, cb config.Callback) maskgif.Option {
	var (
		awsRegion = fs.String("aws-region", "",
			"AWS Region. Required if using S3 Storage")
		awsAccessKeyId = fs.String("aws-access-key-id", "",
			"AWS Access Key ID. Uses the default credential chain if empty")
		awsSecretAccessKey = fs.String("aws-secret-access-key", "",
			"AWS Secret Access Key")
		awsSessionToken = fs.String("aws-session-token", "",
			"AWS Session Token. Optional temporary credentials")
		s3Endpoint = fs.String("s3-endpoint", "",
			"Optional S3 Endpoint to override default")
		s3ForcePathStyle = fs.Bool("s3-force-path-style", false,
			"S3 force the request to use path-style addressing s3.amazonaws.com/bucket/key, instead of bucket.s3.amazonaws.com/key")
		s3SafeChars = fs.String("s3-safe-chars", "",
			"S3 safe characters to be excluded from key escape")

		s3StorageBucket = fs.String("s3-storage-bucket", "",
			"S3 Bucket for S3 Storage. Enable S3 Storage only if this value present")
		s3StorageBaseDir = fs.String("s3-storage-base-dir", "",
			"Base directory for S3 Storage")
		s3StoragePathPrefix = fs.String("s3-storage-path-prefix", "",
			"Base path prefix for S3 Storage")
		s3StorageACL = fs.String("s3-storage-acl", "public-read",
			"Upload ACL for S3 Storage")
		s3StorageClass = fs.String("s3-storage-class", "STANDARD",
			"S3 File Storage Class. Available values: REDUCED_REDUNDANCY, STANDARD_IA, ONEZONE_IA, INTELLIGENT_TIERING, GLACIER, DEEP_ARCHIVE. Default: STANDARD")
		s3StorageExpiration = fs.Duration("s3-storage-expiration", 0,
			"S3 Storage expiration duration e.g. 24h. Default no expiration")

		_, _ = cb()
	)
	return func(app *maskgif.App) {
		if *awsRegion == "" || *s3StorageBucket == "" {
			return
		}
		// activate S3 Storage only if region and bucket config present
		app.Storages = append(app.Storages,
			s3storage.New(loadConfig(*awsRegion, *awsAccessKeyId, *awsSecretAccessKey, *awsSessionToken),
				*s3StorageBucket,
				s3storage.WithPathPrefix(*s3StoragePathPrefix),
				s3storage.WithBaseDir(*s3StorageBaseDir),
				s3storage.WithACL(*s3StorageACL),
				s3storage.WithSafeChars(*s3SafeChars),
				s3storage.WithExpiration(*s3StorageExpiration),
				s3storage.WithStorageClass(*s3StorageClass),
				s3storage.WithEndpoint(*s3Endpoint),
				s3storage.WithForcePathStyle(*s3ForcePathStyle),
			),
		)
	}
}

func loadConfig(region, accessKeyID, secretAccessKey, sessionToken string) aws.Config {
	options := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}
	if accessKeyID != "" && secretAccessKey != "" {
		options = append(options, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)))
	}
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), options...)
	if err != nil {
		panic(err)
	}
	return cfg
}
