package syncoptions

import (
	"testing"
	"time"

	"dirsync/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_CacheTTL(t *testing.T) {
	assert.Equal(t, time.Minute, Config{CacheTTLSeconds: 60}.CacheTTL())
	assert.Zero(t, Config{CacheTTLSeconds: 0}.CacheTTL())
	assert.Zero(t, Config{CacheTTLSeconds: -5}.CacheTTL())
}

func TestConfig_NewLoader(t *testing.T) {
	client := new(mocks.Client)

	loader, err := Config{TaskSource: TaskSourceDir, TaskDir: "/etc/dirsync"}.NewLoader(nil, "")
	require.NoError(t, err)
	assert.Equal(t, DirLoader{Dir: "/etc/dirsync"}, loader)

	loader, err = Config{TaskSource: TaskSourceStorage, TaskPrefix: "tasks"}.NewLoader(client, "bucket")
	require.NoError(t, err)
	assert.Equal(t, ObjectLoader{Client: client, Bucket: "bucket", Prefix: "tasks"}, loader)

	_, err = Config{TaskSource: TaskSourceStorage}.NewLoader(nil, "bucket")
	assert.Error(t, err)

	_, err = Config{TaskSource: "ftp"}.NewLoader(client, "bucket")
	assert.Error(t, err)
}
