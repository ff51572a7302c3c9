package objectstore

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// staticCredentials wraps an access key/secret pair the way
// pkg/config.Config reads them (AWS_ACCESS_KEY_ID /
// AWS_SECRET_ACCESS_KEY, spec.md §6), bypassing the default chain the
// teacher's S3Store relies on.
func staticCredentials(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
}
