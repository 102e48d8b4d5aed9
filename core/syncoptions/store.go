package syncoptions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"dirsync/core/storage"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/singleflight"
)

// ErrTaskNotFound is returned when no task file exists for a name.
var ErrTaskNotFound = errors.New("task not found")

// Loader reads raw task definitions.
type Loader interface {
	// Load returns the YAML document of the named task.
	Load(ctx context.Context, name string) ([]byte, error)
	// List returns the names of every known task, sorted.
	List(ctx context.Context) ([]string, error)
}

var taskExtensions = []string{".yaml", ".yml"}

// DirLoader loads tasks from <Dir>/<name>.yaml or <Dir>/<name>.yml.
type DirLoader struct {
	Dir string
}

// Load implements Loader.
func (l DirLoader) Load(_ context.Context, name string) ([]byte, error) {
	if !ValidTaskName(name) {
		return nil, fmt.Errorf("invalid task name %q", name)
	}
	for _, ext := range taskExtensions {
		data, err := os.ReadFile(filepath.Join(l.Dir, name+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read task %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
}

// List implements Loader.
func (l DirLoader) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks in %s: %w", l.Dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := trimTaskExtension(entry.Name()); ok {
			names = append(names, name)
		}
	}
	return dedupeSorted(names), nil
}

// ObjectLoader loads tasks from an object storage bucket under Prefix.
type ObjectLoader struct {
	Client storage.Client
	Bucket string
	Prefix string
}

// Load implements Loader.
func (l ObjectLoader) Load(ctx context.Context, name string) ([]byte, error) {
	if !ValidTaskName(name) {
		return nil, fmt.Errorf("invalid task name %q", name)
	}
	var lastErr error
	for _, ext := range taskExtensions {
		key := path.Join(l.Prefix, name+ext)
		obj, err := l.Client.GetObject(ctx, l.Bucket, key, minio.GetObjectOptions{})
		if err != nil {
			lastErr = err
			continue
		}
		data, err := io.ReadAll(obj)
		_ = obj.Close()
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("failed to read task %s: %w", key, err)
		}
		return data, nil
	}
	if lastErr != nil && minio.ToErrorResponse(lastErr).Code != "NoSuchKey" {
		return nil, fmt.Errorf("failed to fetch task %s: %w", name, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
}

// List implements Loader.
func (l ObjectLoader) List(ctx context.Context) ([]string, error) {
	prefix := l.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var names []string
	for obj := range l.Client.ListObjects(ctx, l.Bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", obj.Err)
		}
		if name, ok := trimTaskExtension(strings.TrimPrefix(obj.Key, prefix)); ok {
			names = append(names, name)
		}
	}
	return dedupeSorted(names), nil
}

func trimTaskExtension(file string) (string, bool) {
	for _, ext := range taskExtensions {
		if strings.HasSuffix(file, ext) {
			name := strings.TrimSuffix(file, ext)
			return name, ValidTaskName(name)
		}
	}
	return "", false
}

func dedupeSorted(names []string) []string {
	sort.Strings(names)
	out := names[:0]
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}
		out = append(out, name)
	}
	return out
}

type storeEntry struct {
	task  *Task
	built time.Time
}

// Store caches parsed tasks for a TTL. A zero TTL disables caching.
// Concurrent loads of the same task are collapsed into one.
type Store struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]storeEntry
	sf      singleflight.Group
}

// NewStore creates a task store on top of loader.
func NewStore(loader Loader, ttl time.Duration) *Store {
	return &Store{
		loader:  loader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]storeEntry),
	}
}

func (s *Store) fresh(name string) (*Task, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.mu.RLock()
	entry, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok || s.now().Sub(entry.built) > s.ttl {
		return nil, false
	}
	return entry.task, true
}

// Get returns the parsed task called name.
func (s *Store) Get(ctx context.Context, name string) (*Task, error) {
	if task, ok := s.fresh(name); ok {
		return task, nil
	}

	result, err, _ := s.sf.Do(name, func() (interface{}, error) {
		if task, ok := s.fresh(name); ok {
			return task, nil
		}
		data, err := s.loader.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		task, err := ParseTask(data)
		if err != nil {
			return nil, err
		}
		if task.Name != name {
			return nil, fmt.Errorf("task file %s declares name %q", name, task.Name)
		}
		if s.ttl > 0 {
			s.mu.Lock()
			s.entries[name] = storeEntry{task: task, built: s.now()}
			s.mu.Unlock()
		}
		return task, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Task), nil
}

// List returns the names of every known task.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.loader.List(ctx)
}

// Invalidate drops the cached copy of a task.
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}
