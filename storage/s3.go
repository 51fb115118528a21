package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"chess-scout/config"
)

// ObjectPutter ist der Teil des S3-Clients, den der Publisher braucht.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Endpoint beschreibt einen S3-kompatiblen Speicher mit statischen Zugangsdaten.
type S3Endpoint struct {
	URL    string
	Region string
	Key    string
	Secret string
}

// EndpointFromConfig liest den Endpunkt aus der Konfiguration.
func EndpointFromConfig(cfg *config.Config) S3Endpoint {
	return S3Endpoint{URL: cfg.S3URL, Region: cfg.S3Region, Key: cfg.S3Key, Secret: cfg.S3Secret}
}

// NewS3Client erstellt einen Client mit Pfad-Adressierung (bucket im Pfad, nicht im Hostnamen).
func NewS3Client(ctx context.Context, ep S3Endpoint) (*s3.Client, error) {
	if ep.URL == "" {
		return nil, errors.New("s3 endpoint url is empty")
	}
	region := ep.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(ep.Key, ep.Secret, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(ep.URL)
		o.UsePathStyle = true
	}), nil
}

// Publisher legt JSON-Dokumente im Bucket ab.
type Publisher struct {
	Client ObjectPutter
	Bucket string
	URL    string
	Logger *zap.Logger
}

// NewPublisher erstellt einen Publisher für den konfigurierten Bucket.
func NewPublisher(client ObjectPutter, cfg *config.Config, logger *zap.Logger) *Publisher {
	return &Publisher{Client: client, Bucket: cfg.S3Bucket, URL: cfg.S3URL, Logger: logger}
}

// UploadFile lädt Daten hoch und gibt den öffentlichen Link zurück.
func (p *Publisher) UploadFile(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := p.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", p.Bucket, key, err)
	}
	link := fmt.Sprintf("%s/%s/%s", strings.TrimRight(p.URL, "/"), p.Bucket, key)
	p.Logger.Debug("Objekt hochgeladen", zap.String("link", link))
	return link, nil
}

// PublishJSON serialisiert v eingerückt und lädt es unter key hoch.
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return p.UploadFile(ctx, key, "application/json", data)
}

// GamesKey ist der Schlüssel des jeweils neuesten Spieldokuments eines Spielers.
func GamesKey(playerID string) string {
	return fmt.Sprintf("games/%s/latest.json", playerID)
}

// ImportKey ist der Schlüssel eines Importergebnisses.
func ImportKey(runID string) string {
	return fmt.Sprintf("imports/%s.json", runID)
}
