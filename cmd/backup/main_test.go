package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeBucket struct {
	prefix  string
	objects []types.Object
	deleted []string
	failOn  string
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.prefix = aws.ToString(in.Prefix)
	return &s3.ListObjectsV2Output{Contents: f.objects}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failOn {
		return nil, errors.New("denied")
	}
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func backups(n int) []types.Object {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []types.Object
	for i := 0; i < n; i++ {
		out = append(out, types.Object{
			Key:          aws.String("backups/b" + string(rune('0'+i))),
			LastModified: aws.Time(base.Add(time.Duration(i) * time.Hour)),
		})
	}
	return out
}

func TestRotateKeepsNewest(t *testing.T) {
	f := &fakeBucket{objects: backups(6)}
	require.NoError(t, rotateBackups(context.Background(), f, "b", "backups/", 4, zaptest.NewLogger(t)))
	assert.Equal(t, "backups/", f.prefix)
	assert.ElementsMatch(t, []string{"backups/b0", "backups/b1"}, f.deleted)
}

func TestRotateNothingToDo(t *testing.T) {
	f := &fakeBucket{objects: backups(3)}
	require.NoError(t, rotateBackups(context.Background(), f, "b", "backups/", 4, zaptest.NewLogger(t)))
	assert.Empty(t, f.deleted)
}

func TestRotateContinuesAfterDeleteError(t *testing.T) {
	f := &fakeBucket{objects: backups(7), failOn: "backups/b0"}
	require.NoError(t, rotateBackups(context.Background(), f, "b", "backups/", 4, zaptest.NewLogger(t)))
	assert.ElementsMatch(t, []string{"backups/b1", "backups/b2"}, f.deleted)
}
