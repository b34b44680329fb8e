package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/anandaputra/uangku/internal/domain"
)

// UploadCSV renders the transaction list as CSV and uploads it to the
// given GCS bucket under objectName. It assumes Application Default
// Credentials are configured.
func UploadCSV(ctx context.Context, bucketName, objectName string, txns []domain.Transaction) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, txns); err != nil {
		return err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("export: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv; charset=utf-8"
	if _, err := w.Write(buf.Bytes()); err != nil {
		_ = w.Close()
		return fmt.Errorf("export: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("export: finalize upload: %w", err)
	}
	return nil
}
