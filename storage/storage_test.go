package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"

	"chess-scout/config"
	"chess-scout/models"
)

type fakePutter struct {
	key, bucket, contentType string
	body                     []byte
	err                      error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key, f.bucket, f.contentType = *in.Key, *in.Bucket, *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestPublishJSON(t *testing.T) {
	put := &fakePutter{}
	cfg := &config.Config{S3Bucket: "chess", S3URL: "https://s3.test/"}
	p := NewPublisher(put, cfg, zaptest.NewLogger(t))

	link, err := p.PublishJSON(context.Background(), GamesKey("123"), map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/chess/games/123/latest.json", link)
	assert.Equal(t, "games/123/latest.json", put.key)
	assert.Equal(t, "chess", put.bucket)
	assert.Equal(t, "application/json", put.contentType)
	assert.JSONEq(t, `{"a":1}`, string(put.body))
}

func TestPublishJSONError(t *testing.T) {
	put := &fakePutter{err: errors.New("denied")}
	p := NewPublisher(put, &config.Config{S3Bucket: "chess"}, zaptest.NewLogger(t))
	_, err := p.PublishJSON(context.Background(), ImportKey("r1"), []int{1})
	assert.ErrorContains(t, err, "imports/r1.json")
}

// Läuft nur gegen eine echte Datenbank.
func TestRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Open(&config.Config{DatabaseURL: dsn}, zaptest.NewLogger(t))
	require.NoError(t, err)
	repo := NewRepository(db)
	ctx := context.Background()

	playerID := "t-" + uuid.NewString()[:8]
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.SaveSnapshot(ctx, &models.GamesSnapshot{
			RunID:     uuid.NewString(),
			PlayerID:  playerID,
			GameCount: i,
			Document:  datatypes.JSON(`{"player":{},"games":{}}`),
		}))
	}

	latest, err := repo.LatestSnapshot(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.GameCount)
	assert.NotEmpty(t, latest.Document)

	list, err := repo.ListSnapshots(ctx, playerID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.LatestSnapshot(ctx, "missing-"+playerID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewS3Client(t *testing.T) {
	ep := EndpointFromConfig(&config.Config{S3URL: "https://s3.example.test", S3Region: "eu-central-1", S3Key: "k", S3Secret: "s"})
	client, err := NewS3Client(context.Background(), ep)
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-central-1", opts.Region)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "https://s3.example.test", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k", creds.AccessKeyID)
}

func TestNewS3ClientDefaults(t *testing.T) {
	client, err := NewS3Client(context.Background(), S3Endpoint{URL: "http://localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", client.Options().Region)

	_, err = NewS3Client(context.Background(), S3Endpoint{Region: "eu-central-1"})
	assert.Error(t, err)
}
