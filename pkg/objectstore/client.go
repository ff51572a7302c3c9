// Package objectstore wraps S3 with the pipeline's versioned-blob and
// symmetric-encryption contract (spec.md §4.2), grounded on
// pkg/artifacts/s3_store.go from the teacher.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cityofaustin/atd-mds-go/internal/errkit"
)

// s3API is the slice of *s3.Client the Store needs, narrowed to an
// interface so tests can substitute a fake instead of hitting AWS.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, opts ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store is a bucket-scoped, versioned S3 blob client with an encryption
// boundary (spec.md §4.2).
type Store struct {
	client s3API
	bucket string
	cipher *Cipher
	log    *slog.Logger
}

// Config mirrors the AWS-related subset of config.Config that ObjectStore
// needs to construct a client.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	FernetKey       string // optional; Put(encrypt=true)/Get require it
	Endpoint        string // optional custom endpoint (MinIO/LocalStack)
}

// New constructs a Store. The constructor fails if bucket or credentials
// are unset (spec.md §4.2 failure policy).
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errkit.New(errkit.KindConfigMissing, "objectstore.New",
			fmt.Errorf("bucket/access-key/secret must all be set"))
	}
	if log == nil {
		log = slog.Default()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(staticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey)),
	)
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	var cipher *Cipher
	if cfg.FernetKey != "" {
		cipher, err = NewCipher(cfg.FernetKey)
		if err != nil {
			return nil, fmt.Errorf("objectstore: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket, cipher: cipher, log: log}, nil
}

// logger returns s.log, defaulting to slog.Default() for Stores built
// directly in tests without going through New.
func (s *Store) logger() *slog.Logger {
	if s.log == nil {
		return slog.Default()
	}
	return s.log
}

// Put writes body to key, optionally symmetric-encrypting first, and
// returns the version id S3 assigned. It fails with NotInitialized-style
// errors (wrapped ConfigMissing) when the client has no cipher but encrypt
// is requested.
func (s *Store) Put(ctx context.Context, key string, body []byte, encrypt bool) (versionID string, err error) {
	if encrypt {
		if s.cipher == nil {
			return "", errkit.New(errkit.KindConfigMissing, "objectstore.Put",
				fmt.Errorf("encryption requested but no fernet key configured"))
		}
		body, err = s.cipher.Encrypt(body)
		if err != nil {
			return "", fmt.Errorf("objectstore: encrypt %s: %w", key, err)
		}
	}

	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", errkit.New(errkit.KindTransport, "objectstore.Put", err)
	}
	if out.VersionId != nil {
		versionID = *out.VersionId
	}
	return versionID, nil
}

// Get fetches key, transparently decrypting when the payload carries the
// encryption marker, and parses it as JSON. Per spec.md §4.2, Get is
// best-effort: any failure (missing object, bad JSON, bad ciphertext)
// returns an empty map rather than an error, so pipelines stay resilient
// to absent blobs. The original failure is logged, not swallowed silently.
func (s *Store) Get(ctx context.Context, key string) (map[string]interface{}, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger().Warn("objectstore: get failed, returning empty object", "key", key, "err", err)
		return map[string]interface{}{}, nil
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		s.logger().Warn("objectstore: read body failed, returning empty object", "key", key, "err", err)
		return map[string]interface{}{}, nil
	}

	if s.cipher != nil && IsEncrypted(body) {
		body, err = s.cipher.Decrypt(body)
		if err != nil {
			s.logger().Warn("objectstore: decrypt failed, returning empty object", "key", key, "err", err)
			return map[string]interface{}{}, nil
		}
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		s.logger().Warn("objectstore: parse json failed, returning empty object", "key", key, "err", err)
		return map[string]interface{}{}, nil
	}
	return doc, nil
}

// ListVersions returns the version ids for key in the order
// ListObjectVersions returns them; no sorting is applied.
func (s *Store) ListVersions(ctx context.Context, key string) ([]string, error) {
	out, err := s.client.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(key),
	})
	if err != nil {
		return nil, errkit.New(errkit.KindTransport, "objectstore.ListVersions", err)
	}

	var ids []string
	for _, v := range out.Versions {
		if v.Key != nil && *v.Key == key && v.VersionId != nil {
			ids = append(ids, *v.VersionId)
		}
	}
	return ids, nil
}

// DeleteAllVersions removes every version of key (the `delete_file`
// administrative op, spec.md §3 lifecycle).
func (s *Store) DeleteAllVersions(ctx context.Context, key string) error {
	ids, err := s.ListVersions(ctx, key)
	if err != nil {
		return err
	}
	for _, id := range ids {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket:    aws.String(s.bucket),
			Key:       aws.String(key),
			VersionId: aws.String(id),
		})
		if err != nil {
			return errkit.New(errkit.KindTransport, "objectstore.DeleteAllVersions", err)
		}
	}
	return nil
}

// Encrypt/Decrypt expose the cipher directly for ConfigStore's
// providers/settings blobs (spec.md §4.1), which may themselves be
// encrypted independent of a Put/Get call.
func (s *Store) Encrypt(plaintext string) (string, error) {
	if s.cipher == nil {
		return "", fmt.Errorf("objectstore: no fernet key configured")
	}
	ct, err := s.cipher.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return string(ct), nil
}

func (s *Store) Decrypt(ciphertext string) (string, error) {
	if s.cipher == nil {
		return "", fmt.Errorf("objectstore: no fernet key configured")
	}
	pt, err := s.cipher.Decrypt([]byte(ciphertext))
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
