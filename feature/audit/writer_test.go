package audit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"dirsync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedWriter(client *mocks.Client, prefix string) *Writer {
	w := NewWriter(client, "test-bucket", prefix, nil)
	w.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("CET", 3600)) }
	return w
}

func TestWriter_Write(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "/audit/")

	want, err := RenderLDIF(sampleOperations())
	require.NoError(t, err)

	client.On("PutObject", mock.Anything, "test-bucket", "audit/people/20260304T040607.890Z.ldif",
		mock.MatchedBy(func(r *bytes.Reader) bool {
			got := make([]byte, r.Size())
			_, _ = r.ReadAt(got, 0)
			return bytes.Equal(got, want)
		}),
		int64(len(want)),
		minio.PutObjectOptions{ContentType: "text/x-ldif"},
	).Return(minio.UploadInfo{}, nil)

	name, err := w.Write(context.Background(), "people", sampleOperations())
	require.NoError(t, err)
	assert.Equal(t, "audit/people/20260304T040607.890Z.ldif", name)
	client.AssertExpectations(t)
}

func TestWriter_WriteNothing(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "audit")

	name, err := w.Write(context.Background(), "people", nil)
	require.NoError(t, err)
	assert.Empty(t, name)
	client.AssertNotCalled(t, "PutObject")
}

func TestWriter_WriteError(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "")

	client.On("PutObject", mock.Anything, "test-bucket", "people/20260304T040607.890Z.ldif",
		mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, errors.New("boom"))

	_, err := w.Write(context.Background(), "people", sampleOperations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload audit log")
}

func TestWriter_List(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "audit")

	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "audit/people/20260304T050000.000Z.ldif"}
	ch <- minio.ObjectInfo{Key: "audit/people/20260301T050000.000Z.ldif"}
	ch <- minio.ObjectInfo{Key: "audit/people/notes.txt"}
	close(ch)
	client.On("ListObjects", mock.Anything, "test-bucket", minio.ListObjectsOptions{Prefix: "audit/people/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	names, err := w.List(context.Background(), "people")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"audit/people/20260301T050000.000Z.ldif",
		"audit/people/20260304T050000.000Z.ldif",
	}, names)
}

func TestWriter_ListError(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "audit")

	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("denied")}
	close(ch)
	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	_, err := w.List(context.Background(), "people")
	assert.Error(t, err)
}

func TestWriter_Prune(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "audit")

	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(mocks.Listing(
		"audit/people/3.ldif", "audit/people/1.ldif", "audit/people/2.ldif",
	))

	var removed []string
	client.On("RemoveObjects", mock.Anything, "test-bucket", mock.Anything, minio.RemoveObjectsOptions{}).
		Run(func(args mock.Arguments) {
			for obj := range args.Get(2).(<-chan minio.ObjectInfo) {
				removed = append(removed, obj.Key)
			}
		}).
		Return(nil)

	deleted, err := w.Prune(context.Background(), "people", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []string{"audit/people/1.ldif", "audit/people/2.ldif"}, removed)
}

func TestWriter_PruneNothing(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "audit")
	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(mocks.Listing("audit/people/1.ldif"))

	deleted, err := w.Prune(context.Background(), "people", 5)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	client.AssertNotCalled(t, "RemoveObjects")
}

func TestWriter_PruneErrors(t *testing.T) {
	client := new(mocks.Client)
	w := fixedWriter(client, "audit")
	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(mocks.Listing(
		"audit/people/1.ldif", "audit/people/2.ldif",
	))

	client.On("RemoveObjects", mock.Anything, "test-bucket", mock.Anything, mock.Anything).
		Return(mocks.Failures(errors.New("locked"), "audit/people/1.ldif"))

	deleted, err := w.Prune(context.Background(), "people", 0)
	require.Error(t, err)
	assert.Equal(t, 1, deleted)
}
