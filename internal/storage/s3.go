package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"storygraph/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client
}

// ArchiveRawPayload stores the raw ingested payload of a news item so the
// original feed data survives normalization.
func ArchiveRawPayload(ctx context.Context, client *s3.Client, newsID string, payload []byte) (string, error) {
	bucket := util.GetEnvString("AWS_BUCKET", "storygraph")
	key := fmt.Sprintf("raw/%s.json", newsID)

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive raw payload: %w", err)
	}
	return key, nil
}

// GetRawPayload fetches an archived raw payload by news ID.
func GetRawPayload(ctx context.Context, client *s3.Client, newsID string) ([]byte, error) {
	bucket := util.GetEnvString("AWS_BUCKET", "storygraph")
	key := fmt.Sprintf("raw/%s.json", newsID)

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get raw payload: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read raw payload: %w", err)
	}
	return buf.Bytes(), nil
}
