package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"chess-scout/config"
	"chess-scout/logging"
	"chess-scout/storage"
)

// bucketAPI ist der Teil des S3-Clients, den die Rotation braucht.
type bucketAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fehler beim Laden der Konfiguration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	if cfg.DatabaseURL == "" || !cfg.PublishingEnabled() {
		logger.Fatal("DATABASE_URL, S3_URL und S3_BUCKET müssen gesetzt sein")
	}
	logger.Info("Starte Backup-Prozess...")
	ctx := context.Background()

	// 1. Datenbank-Dump erstellen
	dumpData, err := createDump(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Fehler beim Erstellen des DB-Dumps", zap.Error(err))
	}

	// 2. Backup nach S3 hochladen
	s3Client, err := storage.NewS3Client(ctx, storage.EndpointFromConfig(cfg))
	if err != nil {
		logger.Fatal("Fehler beim Erstellen des S3-Clients", zap.Error(err))
	}
	publisher := storage.NewPublisher(s3Client, cfg, logger)
	key := cfg.BackupPrefix + fmt.Sprintf("backup-%s.sql.gz", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	if _, err := publisher.UploadFile(ctx, key, "application/gzip", dumpData); err != nil {
		logger.Fatal("Fehler beim Hochladen nach S3", zap.Error(err))
	}
	logger.Info("Backup hochgeladen", zap.String("bucket", cfg.S3Bucket), zap.String("key", key))

	// 3. Alte Backups rotieren
	if err := rotateBackups(ctx, s3Client, cfg.S3Bucket, cfg.BackupPrefix, cfg.KeepBackups, logger); err != nil {
		logger.Fatal("Fehler bei der Rotation alter Backups", zap.Error(err))
	}

	logger.Info("Backup-Prozess erfolgreich abgeschlossen.")
}

// createDump ruft pg_dump mit der Verbindungs-URL auf und komprimiert die Ausgabe.
func createDump(ctx context.Context, dsn string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname="+dsn, "--no-owner")
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := io.Copy(gzipWriter, stdout); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// rotateBackups behält die neuesten keep Objekte unter prefix und löscht den Rest.
func rotateBackups(ctx context.Context, client bucketAPI, bucket, prefix string, keep int, logger *zap.Logger) error {
	output, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return err
	}

	if len(output.Contents) <= keep {
		logger.Info("Keine Rotation nötig", zap.Int("backups", len(output.Contents)), zap.Int("keep", keep))
		return nil
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return aws.ToTime(output.Contents[i].LastModified).After(aws.ToTime(output.Contents[j].LastModified))
	})

	for _, obj := range output.Contents[keep:] {
		logger.Info("Lösche altes Backup", zap.String("key", aws.ToString(obj.Key)))
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    obj.Key,
		})
		if err != nil {
			logger.Warn("Löschen fehlgeschlagen", zap.String("key", aws.ToString(obj.Key)), zap.Error(err))
		}
	}

	return nil
}
