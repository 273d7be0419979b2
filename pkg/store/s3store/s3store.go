// Package s3store implements store.FileStore against an S3 (or
// S3-compatible) bucket, one object per share entry under an optional key
// prefix.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/filewire/filewire/internal/logger"
	"github.com/filewire/filewire/internal/telemetry"
	"github.com/filewire/filewire/pkg/store"
)

const storeType = "s3"

// retryConfig controls the exponential backoff applied to transient S3 errors.
type retryConfig struct {
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
}

var defaultRetry = retryConfig{
	maxRetries:        3,
	initialBackoff:    100 * time.Millisecond,
	maxBackoff:        2 * time.Second,
	backoffMultiplier: 2.0,
}

// Store is a store.FileStore backed by a single S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	retry  retryConfig
}

// New returns a Store reading objects from bucket, optionally scoped under
// prefix (e.g. "share/").
func New(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix, retry: defaultRetry}
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}

func (s *Store) calculateBackoff(attempt int) time.Duration {
	backoff := float64(s.retry.initialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= s.retry.backoffMultiplier
	}
	if backoff > float64(s.retry.maxBackoff) {
		backoff = float64(s.retry.maxBackoff)
	}
	return time.Duration(backoff)
}

// List lists object keys under the store's prefix, stripped of that prefix.
func (s *Store) List(ctx context.Context) (names []string, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanStoreList, trace.WithAttributes(telemetry.StoreType(storeType)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
			return
		}
		telemetry.SetAttributes(ctx, telemetry.Entries(len(names)))
	}()

	var continuationToken *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", s.bucket, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.prefix)
			name = strings.TrimPrefix(name, "/")
			// Names not representable in ASCII are dropped from the listing.
			if name == "" || strings.IndexFunc(name, func(r rune) bool { return r > 0x7f }) >= 0 {
				continue
			}
			names = append(names, name)
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuationToken = out.NextContinuationToken
	}

	return names, nil
}

// Size performs a HEAD request to retrieve the object's content length.
func (s *Store) Size(ctx context.Context, name string) (size uint64, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanStoreSize,
		trace.WithAttributes(telemetry.StoreType(storeType), telemetry.Filename(name)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
			return
		}
		telemetry.SetAttributes(ctx, telemetry.Size(size))
	}()

	key := s.key(name)

	var result *s3.HeadObjectOutput
	var lastErr error

	for attempt := 0; attempt <= s.retry.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.calculateBackoff(attempt - 1)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, lastErr = s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if lastErr == nil {
			break
		}
		if isNotFoundError(lastErr) {
			return 0, store.ErrNotFound
		}
		if !isRetryableError(lastErr) {
			break
		}
		logger.Debug("s3store Size: transient error, retrying", "key", key, "attempt", attempt+1)
	}

	if lastErr != nil {
		return 0, fmt.Errorf("head object %s: %w", key, lastErr)
	}
	if result.ContentLength == nil {
		return 0, fmt.Errorf("content length unavailable for %s", key)
	}
	return uint64(*result.ContentLength), nil
}

// Read issues a byte-range GetObject for [offset, offset+length).
func (s *Store) Read(ctx context.Context, name string, offset, length uint64) (data []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanStoreRead,
		trace.WithAttributes(telemetry.StoreType(storeType), telemetry.Filename(name),
			telemetry.Offset(offset), telemetry.Count(length)))
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	if length == 0 {
		return nil, nil
	}

	key := s.key(name)
	end := offset + length - 1
	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset, end)

	var result *s3.GetObjectOutput
	var lastErr error

	for attempt := 0; attempt <= s.retry.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.calculateBackoff(attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, lastErr = s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Range:  aws.String(rangeHeader),
		})
		if lastErr == nil {
			break
		}
		if isNotFoundError(lastErr) {
			return nil, store.ErrNotFound
		}
		if isInvalidRangeError(lastErr) {
			return nil, store.ErrIsDirectory
		}
		if !isRetryableError(lastErr) {
			break
		}
		logger.Debug("s3store Read: transient error, retrying", "key", key, "attempt", attempt+1)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("get object %s: %w", key, lastErr)
	}
	defer result.Body.Close()

	buf := make([]byte, length)
	n, err := io.ReadFull(result.Body, buf)
	if err != nil {
		return nil, fmt.Errorf("read object body %s: got %d of %d bytes: %w", key, n, length, err)
	}
	return buf, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown",
			"ProvisionedThroughputExceededException",
			"InternalError", "ServiceUnavailable", "ServiceException", "InternalServiceException":
			return true
		case "NoSuchKey", "NotFound", "AccessDenied", "Forbidden", "InvalidRange", "InvalidRequest":
			return false
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "500")
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "404"
	}
	return false
}

func isInvalidRangeError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "InvalidRange"
	}
	return strings.Contains(err.Error(), "InvalidRange")
}
