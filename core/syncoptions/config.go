package syncoptions

import (
	"fmt"
	"time"

	"dirsync/core/storage"
)

const (
	// TaskSourceDir loads task files from TaskDir.
	TaskSourceDir = "dir"
	// TaskSourceStorage loads task files from object storage under TaskPrefix.
	TaskSourceStorage = "storage"
)

// Config holds configuration for synchronization tasks.
type Config struct {
	// TaskSource selects where task files are read from (dir, storage).
	TaskSource string `mapstructure:"task_source" default:"dir"`
	// TaskDir is the local directory holding task files.
	TaskDir string `mapstructure:"task_dir" default:"tasks"`
	// TaskPrefix is the object prefix holding task files.
	TaskPrefix string `mapstructure:"task_prefix" default:"tasks"`
	// PeopleContainer is the parent DN of entries created without a DN template.
	PeopleContainer string `mapstructure:"people_container" default:"ou=People"`
	// CacheTTLSeconds is how long parsed tasks are cached. 0 disables caching.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"60"`
	// Audit enables LDIF audit logs of applied operations.
	Audit bool `mapstructure:"audit" default:"true"`
	// AuditPrefix is the object prefix of audit logs.
	AuditPrefix string `mapstructure:"audit_prefix" default:"audit"`
}

// CacheTTL returns the task cache TTL.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// NewLoader returns the task loader selected by TaskSource. client may be nil
// when tasks are read from a directory.
func (c Config) NewLoader(client storage.Client, bucket string) (Loader, error) {
	switch c.TaskSource {
	case TaskSourceDir, "":
		return DirLoader{Dir: c.TaskDir}, nil
	case TaskSourceStorage:
		if client == nil {
			return nil, fmt.Errorf("task source %q requires a storage client", c.TaskSource)
		}
		return ObjectLoader{Client: client, Bucket: bucket, Prefix: c.TaskPrefix}, nil
	default:
		return nil, fmt.Errorf("unsupported task source %q", c.TaskSource)
	}
}
