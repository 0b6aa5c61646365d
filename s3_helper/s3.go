package s3_helper

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/danthegoodman1/cirecord/gologger"
	"github.com/danthegoodman1/cirecord/utils"
	"github.com/rs/zerolog"
)

var (
	logger = gologger.NewLogger()
)

func NewSession() (*session.Session, error) {
	s3Config := &aws.Config{
		Region:      aws.String(utils.AWS_DEFAULT_REGION),
		Credentials: credentials.NewEnvCredentials(),
	}
	if utils.S3_ENDPOINT != "" {
		s3Config.Endpoint = aws.String(utils.S3_ENDPOINT)
		s3Config.S3ForcePathStyle = aws.Bool(true)
	}

	s3Session, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("error making new session: %w", err)
	}
	return s3Session, nil
}

func NewClient() (*s3.S3, error) {
	sess, err := NewSession()
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

func WriteBytesToS3(ctx context.Context, client s3iface.S3API, bucket, fileName string, byteStream io.Reader, contentType *string) (*s3manager.UploadOutput, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	uploader := s3manager.NewUploaderWithClient(client)

	input := &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(fileName),
		Body:        byteStream,
		ContentType: contentType,
	}

	s := time.Now()
	output, err := uploader.UploadWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error uploading to s3: %w", err)
	}

	d := time.Since(s)
	logger.Debug().Str("fileName", fileName).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("uploaded file to s3")

	return output, nil
}
