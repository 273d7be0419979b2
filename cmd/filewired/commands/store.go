package commands

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/filewire/filewire/pkg/config"
	"github.com/filewire/filewire/pkg/metrics"
	"github.com/filewire/filewire/pkg/store"
	"github.com/filewire/filewire/pkg/store/cache"
	"github.com/filewire/filewire/pkg/store/localfs"
	"github.com/filewire/filewire/pkg/store/s3store"
)

// buildStore constructs the store.FileStore named by cfg.Share.Backend,
// wrapping it in a badger-backed cache when cfg.Cache is enabled.
func buildStore(ctx context.Context, cfg *config.Config, m metrics.ServerMetrics) (store.FileStore, error) {
	var base store.FileStore

	switch cfg.Share.Backend {
	case config.ShareBackendFilesystem:
		base = localfs.New(cfg.Share.Path)

	case config.ShareBackendS3:
		client, err := buildS3Client(ctx, cfg.Share.S3)
		if err != nil {
			return nil, fmt.Errorf("build S3 client: %w", err)
		}
		base = s3store.New(client, cfg.Share.S3.Bucket, cfg.Share.S3.Prefix)

	default:
		return nil, fmt.Errorf("unknown share backend: %s", cfg.Share.Backend)
	}

	if !cfg.Cache.Enabled {
		return base, nil
	}

	watchRoot := ""
	if cfg.Share.Backend == config.ShareBackendFilesystem {
		watchRoot = cfg.Share.Path
	}

	cached, err := cache.New(base, cfg.Cache.Path, cfg.Cache.TTL, watchRoot, m)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}
	return cached, nil
}

func buildS3Client(ctx context.Context, s3cfg config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s3cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = &s3cfg.Endpoint
			o.UsePathStyle = true
		}
	}), nil
}
