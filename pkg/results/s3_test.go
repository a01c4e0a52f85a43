package results

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_Write(t *testing.T) {
	client := &fakeS3{}
	sink := &S3Sink{Client: client, Bucket: "results", Key: "runs/{run_id}.json", Format: FormatJSON}

	require.NoError(t, sink.Write(context.Background(), fixture()))

	assert.Equal(t, "results", aws.ToString(client.input.Bucket))
	assert.Equal(t, "runs/run-1.json", aws.ToString(client.input.Key))
	assert.Equal(t, "application/json", aws.ToString(client.input.ContentType))
	assert.Equal(t, "run-1", client.input.Metadata["run-id"])
	assert.Equal(t, int64(len(client.body)), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, len(client.body), sink.LastSize())

	loaded, err := DecodeJSON(strings.NewReader(string(client.body)))
	require.NoError(t, err)
	assert.Equal(t, fixture().Prevalence, loaded.Prevalence)
}

func TestS3Sink_CompressedKey(t *testing.T) {
	sink := &S3Sink{Key: "a.txt", Compress: true}
	assert.Equal(t, "a.txt"+SnappyExtension, sink.ObjectKey(fixture()))
}

func TestS3Sink_Error(t *testing.T) {
	sink := &S3Sink{Client: &fakeS3{err: errors.New("access denied")}, Bucket: "b", Key: "k", Format: FormatCSV}
	err := sink.Write(context.Background(), fixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://b/k")
}

func TestNewS3Sink_RequiresBucketAndKey(t *testing.T) {
	_, err := NewS3Sink(context.Background(), "", "k", "", FormatJSON, false)
	assert.Error(t, err)
}
