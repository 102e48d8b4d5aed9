package sync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dirsync/core/connector"
	"dirsync/core/directory"
	"dirsync/core/reconcile"
	"dirsync/core/script"
	"dirsync/core/storage/mocks"
	"dirsync/core/syncoptions"
	"dirsync/feature/audit"
	"dirsync/feature/source"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const peopleTask = `name: people
dn: '"uid=" + srcBean.attr.uid[0] + ",ou=People,dc=example,dc=com"'
default_policy: FORCE
attributes:
  objectClass:
    policy: MERGE
    create_values: ['["top", "inetOrgPerson"]']
`

const peopleSource = `[
  {"attributes": [{"name": "uid", "values": ["alice"]}, {"name": "cn", "values": ["Alice"]}, {"name": "mail", "values": ["alice@example.com"]}]},
  {"attributes": [{"name": "uid", "values": ["bob"]}, {"name": "cn", "values": ["Bob"]}]}
]`

const peopleDestination = `[
  {"dn": "uid=bob,ou=People,dc=example,dc=com", "attributes": [{"name": "uid", "values": ["bob"]}, {"name": "cn", "values": ["Robert"]}]},
  {"dn": "uid=carol,ou=People,dc=example,dc=com", "attributes": [{"name": "uid", "values": ["carol"]}]}
]`

type fixture struct {
	service     *Service
	destination *directory.FileDestination
	storage     *mocks.Client
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// setupService wires a service on top of a task directory, a JSON source
// file, a JSON destination file and a mocked audit bucket.
func setupService(t *testing.T, opts ...ServiceOption) *fixture {
	t.Helper()
	dir := t.TempDir()
	taskDir := filepath.Join(dir, "tasks")
	require.NoError(t, os.Mkdir(taskDir, 0o755))
	writeFile(t, filepath.Join(taskDir, "people.yaml"), peopleTask)
	writeFile(t, filepath.Join(dir, "source.json"), peopleSource)
	writeFile(t, filepath.Join(dir, "destination.json"), peopleDestination)

	dst := directory.NewFileDestination(filepath.Join(dir, "destination.json"))
	sources := func(*syncoptions.Task) (connector.Source, error) {
		return source.NewFileSource(filepath.Join(dir, "source.json")), nil
	}
	client := new(mocks.Client)

	store := syncoptions.NewStore(syncoptions.DirLoader{Dir: taskDir}, time.Minute)
	reconciler := reconcile.New(script.NewCUE(), zap.NewNop())
	all := append([]ServiceOption{
		WithConnectors(sources, dst),
		WithAudit(audit.NewWriter(client, "test-bucket", "audit", zap.NewNop())),
	}, opts...)

	return &fixture{
		service:     NewService(store, reconciler, zap.NewNop(), all...),
		destination: dst,
		storage:     client,
	}
}

func TestService_RunApply(t *testing.T) {
	f := setupService(t, WithApply(true))
	ctx := context.Background()

	f.storage.On("PutObject", mock.Anything, "test-bucket", mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, "audit/people/") && strings.HasSuffix(name, ".ldif")
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil).Once()

	result, err := f.service.Run(ctx, "people", RunOptions{})
	require.NoError(t, err)
	assert.False(t, result.DryRun)
	assert.Equal(t, 2, result.Applied)
	assert.True(t, strings.HasPrefix(result.Audit, "audit/people/"))
	assert.Equal(t, reconcile.PlanSummary{TotalEntries: 3, Adds: 1, Modifies: 1, Skipped: 1}, result.Plan.Summary)
	f.storage.AssertExpectations(t)

	entries, err := f.destination.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"Bob"}, entries[0].Attribute("cn").Strings())
	assert.Equal(t, "uid=alice,ou=People,dc=example,dc=com", entries[2].DN)
	assert.Equal(t, []string{"top", "inetOrgPerson"}, entries[2].Attribute("objectClass").Strings())

	// A second run converges to nothing.
	result, err = f.service.Run(ctx, "people", RunOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Plan.Operations)
	assert.Equal(t, 2, result.Plan.Summary.Unchanged)
	assert.Empty(t, result.Audit)
}

func TestService_RunPlanModeIsDryRun(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	result, err := f.service.Run(ctx, "people", RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Zero(t, result.Applied)
	assert.Len(t, result.Plan.Operations, 2)
	f.storage.AssertNotCalled(t, "PutObject")

	entries, err := f.destination.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "destination untouched")
}

func TestService_RunClean(t *testing.T) {
	f := setupService(t, WithApply(true))
	f.storage.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	result, err := f.service.Run(context.Background(), "people", RunOptions{Clean: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Plan.Summary.Deletes)
	assert.Equal(t, 3, result.Applied)

	entries, err := f.destination.List(context.Background())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "uid=carol,ou=People,dc=example,dc=com", e.DN)
	}
}

func TestService_RunAuditFailureIsNotFatal(t *testing.T) {
	f := setupService(t, WithApply(true))
	f.storage.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	result, err := f.service.Run(context.Background(), "people", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.Empty(t, result.Audit)
}

func TestService_RunErrors(t *testing.T) {
	f := setupService(t)
	_, err := f.service.Run(context.Background(), "missing", RunOptions{})
	assert.ErrorIs(t, err, syncoptions.ErrTaskNotFound)

	bare := NewService(syncoptions.NewStore(syncoptions.DirLoader{Dir: t.TempDir()}, 0), reconcile.New(script.NewCUE(), nil), nil)
	_, err = bare.Run(context.Background(), "people", RunOptions{})
	assert.ErrorIs(t, err, ErrNoConnectors)
	_, err = bare.AuditLogs(context.Background(), "people", 0)
	assert.ErrorIs(t, err, ErrNoAudit)
}

func TestService_Preview(t *testing.T) {
	f := setupService(t)
	beans, err := source.DecodeBeans([]byte(peopleSource))
	require.NoError(t, err)
	current, err := source.DecodeBeans([]byte(peopleDestination))
	require.NoError(t, err)

	op, err := f.service.Preview(context.Background(), "people", PreviewRequest{Source: beans[0]})
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, reconcile.AddEntry, op.Kind)
	assert.Equal(t, "uid=alice,ou=People,dc=example,dc=com", op.DN)

	op, err = f.service.Preview(context.Background(), "people", PreviewRequest{Source: beans[1], Destination: current[0]})
	require.NoError(t, err)
	require.NotNil(t, op)
	change, ok := op.Change("cn")
	require.True(t, ok)
	assert.Equal(t, reconcile.ChangeReplace, change.Type)

	synced, err := beans[1].Clone()
	require.NoError(t, err)
	synced.DN = "uid=bob,ou=People,dc=example,dc=com"
	op, err = f.service.Preview(context.Background(), "people", PreviewRequest{Source: beans[1], Destination: synced})
	require.NoError(t, err)
	assert.Nil(t, op)
}

func TestService_AuditLogs(t *testing.T) {
	f := setupService(t)
	f.storage.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(mocks.Listing(
		"audit/people/20260101T000000.000Z.ldif",
		"audit/people/20260102T000000.000Z.ldif",
		"audit/people/20260103T000000.000Z.ldif",
	))

	names, err := f.service.AuditLogs(context.Background(), "people", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"audit/people/20260102T000000.000Z.ldif",
		"audit/people/20260103T000000.000Z.ldif",
	}, names)
}
