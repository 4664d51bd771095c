package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3LogArchiver stores full job transcripts in object storage, keyed by job
// ID. The jobs table only keeps a truncated copy.
type s3LogArchiver struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

func NewS3LogArchiver(client *s3.Client, bucket string, logger zerolog.Logger) LogArchiver {
	return &s3LogArchiver{
		client: client,
		bucket: bucket,
		logger: logger.With().Str("service", "S3LogArchiver").Logger(),
	}
}

// Archive uploads the transcript to jobs/<yyyy-mm-dd>/<job_id>.log.
func (a *s3LogArchiver) Archive(ctx context.Context, jobID string, logs string) error {
	key := fmt.Sprintf("jobs/%s/%s.log", time.Now().UTC().Format("2006-01-02"), jobID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(logs),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive logs for job %s: %w", jobID, err)
	}
	a.logger.Debug().Str("job_id", jobID).Str("key", key).Int("size", len(logs)).Msg("archived job logs")
	return nil
}
