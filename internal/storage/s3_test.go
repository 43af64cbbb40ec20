package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), S3Config{})
	assert.Error(t, err)
	assert.False(t, S3Config{}.Enabled())
	assert.True(t, S3Config{Bucket: "heatmaps"}.Enabled())
}

func TestS3Publisher_Upload(t *testing.T) {
	if testing.Short() || os.Getenv("HEATMAP_INTEGRATION") != "1" {
		t.Skip("set HEATMAP_INTEGRATION=1 to run against a MinIO container")
	}

	ctx := context.Background()

	container, err := minio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	publisher, err := NewS3Publisher(ctx, S3Config{
		Bucket:    "heatmaps",
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	payload := []byte("not really a png")
	location, err := publisher.Upload(ctx, "2024/01/01/scan.png", "image/png", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "s3://heatmaps/2024/01/01/scan.png", location)

	// A second upload finds the bucket already there.
	_, err = publisher.Upload(ctx, "2024/01/01/scan.png", "image/png", bytes.NewReader(payload))
	require.NoError(t, err)

	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds: miniocreds.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	info, err := client.StatObject(ctx, "heatmaps", "2024/01/01/scan.png", miniogo.StatObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)

	obj, err := client.GetObject(ctx, "heatmaps", "2024/01/01/scan.png", miniogo.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()
	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
