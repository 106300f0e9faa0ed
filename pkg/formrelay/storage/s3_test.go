package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeS3 struct {
	body  []byte
	err   error
	calls int
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func validCreds() aws.CredentialsProvider {
	return credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")
}

func TestDownload_Success(t *testing.T) {
	client := &fakeS3{body: []byte("xlsx-bytes")}
	d := NewDownloader(client, validCreds(), nil)

	data, err := d.Download(context.Background(), "bucket", "template.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx-bytes"), data)
	assert.Equal(t, "bucket", aws.ToString(client.input.Bucket))
	assert.Equal(t, "template.xlsx", aws.ToString(client.input.Key))
}

func TestDownload_EmptyBodyLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDownloader(&fakeS3{body: nil}, validCreds(), zap.New(core))

	data, err := d.Download(context.Background(), "bucket", "template.xlsx")
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrEmptyObject)
	assert.NotErrorIs(t, err, ErrMissingCredentials)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "downloaded object is empty", warnings[0].Message)
}

func TestDownload_MissingCredentials(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := &fakeS3{body: []byte("unused")}
	d := NewDownloader(client, credentials.NewStaticCredentialsProvider("", "", ""), zap.New(core))

	data, err := d.Download(context.Background(), "bucket", "template.xlsx")
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.NotErrorIs(t, err, ErrEmptyObject)
	assert.Equal(t, 0, client.calls, "no request without credentials")
	assert.Equal(t, 1, logs.FilterMessage("credentials not available").Len())
}

func TestDownload_NoSuchKey(t *testing.T) {
	d := NewDownloader(&fakeS3{err: &types.NoSuchKey{}}, validCreds(), nil)

	_, err := d.Download(context.Background(), "bucket", "missing.xlsx")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDownload_ClientError(t *testing.T) {
	boom := errors.New("connection reset")
	d := NewDownloader(&fakeS3{err: boom}, nil, nil)

	_, err := d.Download(context.Background(), "bucket", "template.xlsx")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEmptyObject)
}
