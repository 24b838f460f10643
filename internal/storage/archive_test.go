package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/checkpoint-revenue/internal/config"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestPut(t *testing.T) {
	fp := &fakePutter{}
	a := newReportArchive(fp, "reports-bucket", "/reports/")

	key, err := a.Put(context.Background(), "checkpoint_report_20260301T080000Z.pdf", "application/pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, "reports/checkpoint_report_20260301T080000Z.pdf", key)
	assert.Equal(t, "reports-bucket", aws.ToString(fp.in.Bucket))
	assert.Equal(t, key, aws.ToString(fp.in.Key))
	assert.Equal(t, "application/pdf", aws.ToString(fp.in.ContentType))
	assert.Equal(t, int64(8), aws.ToInt64(fp.in.ContentLength))
	assert.Equal(t, []byte("%PDF-1.3"), fp.body)
}

func TestPutStripsDirectories(t *testing.T) {
	fp := &fakePutter{}
	a := newReportArchive(fp, "b", "")
	key, err := a.Put(context.Background(), "../../etc/passwd", "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "passwd", key)
}

func TestPutError(t *testing.T) {
	a := newReportArchive(&fakePutter{err: errors.New("denied")}, "b", "reports")
	_, err := a.Put(context.Background(), "x.csv", "text/csv", []byte("a"))
	assert.ErrorContains(t, err, "denied")
}

func TestNewReportArchiveDisabled(t *testing.T) {
	a, err := NewReportArchive(context.Background(), config.ArchiveConfig{})
	require.NoError(t, err)
	assert.Nil(t, a)
}
