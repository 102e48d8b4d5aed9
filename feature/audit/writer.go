package audit

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"dirsync/core/reconcile"
	"dirsync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// timestampLayout sorts lexically in time order.
const timestampLayout = "20060102T150405.000Z"

// Writer stores LDIF audit logs in object storage.
type Writer struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewWriter creates a writer storing objects under prefix in bucket.
func NewWriter(client storage.Client, bucket, prefix string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
		now:    time.Now,
	}
}

func (w *Writer) taskPrefix(task string) string {
	if w.prefix == "" {
		return task + "/"
	}
	return path.Join(w.prefix, task) + "/"
}

// Write renders ops and stores them as a new object. It returns the object
// name, or an empty name when there is nothing to record.
func (w *Writer) Write(ctx context.Context, task string, ops []*reconcile.Operation) (string, error) {
	if len(ops) == 0 {
		return "", nil
	}
	data, err := RenderLDIF(ops)
	if err != nil {
		return "", fmt.Errorf("failed to render audit log: %w", err)
	}

	objName := w.taskPrefix(task) + w.now().UTC().Format(timestampLayout) + ".ldif"
	_, err = w.client.PutObject(ctx, w.bucket, objName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/x-ldif",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audit log %s: %w", objName, err)
	}

	w.logger.Info("Audit log written",
		zap.String("task", task),
		zap.String("object", objName),
		zap.Int("operations", len(ops)),
	)
	return objName, nil
}

// List returns the audit objects of task, oldest first.
func (w *Writer) List(ctx context.Context, task string) ([]string, error) {
	var names []string
	for obj := range w.client.ListObjects(ctx, w.bucket, minio.ListObjectsOptions{Prefix: w.taskPrefix(task), Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list audit logs: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".ldif") {
			names = append(names, obj.Key)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Prune deletes the oldest audit objects of task, keeping the newest keep
// objects. It returns the number of deleted objects.
func (w *Writer) Prune(ctx context.Context, task string, keep int) (int, error) {
	names, err := w.List(ctx, task)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(names) <= keep {
		return 0, nil
	}
	stale := names[:len(names)-keep]

	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, name := range stale {
		objectsCh <- minio.ObjectInfo{Key: name}
	}
	close(objectsCh)

	var failed []string
	for rerr := range w.client.RemoveObjects(ctx, w.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", rerr.ObjectName, rerr.Err))
		}
	}
	deleted := len(stale) - len(failed)
	w.logger.Info("Audit logs pruned", zap.String("task", task), zap.Int("deleted", deleted), zap.Int("kept", keep))
	if len(failed) > 0 {
		return deleted, fmt.Errorf("failed to delete %d audit logs: %v", len(failed), failed)
	}
	return deleted, nil
}
