package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dirsync/core/bean"
	"dirsync/core/reconcile"
)

var (
	// ErrEntryExists is returned when adding or renaming onto an existing DN.
	ErrEntryExists = errors.New("entry already exists")
	// ErrNoSuchEntry is returned when the target DN does not exist.
	ErrNoSuchEntry = errors.New("no such entry")
)

// FileDestination keeps destination entries in a JSON file, for offline
// planning and tests. A missing file is an empty destination.
type FileDestination struct {
	Path string

	mu sync.Mutex
}

// NewFileDestination creates a destination stored at path.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{Path: path}
}

// List implements connector.Source.
func (f *FileDestination) List(_ context.Context) ([]*bean.Bean, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// Apply implements reconcile.Applier.
func (f *FileDestination) Apply(ctx context.Context, op *reconcile.Operation) error {
	return f.ApplyBatch(ctx, []*reconcile.Operation{op})
}

// ApplyBatch implements reconcile.BatchApplier. The file is only rewritten
// when every operation succeeds.
func (f *FileDestination) ApplyBatch(ctx context.Context, ops []*reconcile.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entries, err = ApplyOperation(entries, op); err != nil {
			return err
		}
	}
	return f.save(entries)
}

func (f *FileDestination) load() ([]*bean.Bean, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read destination file: %w", err)
	}
	var entries []*bean.Bean
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode destination file: %w", err)
	}
	return entries, nil
}

func (f *FileDestination) save(entries []*bean.Bean) error {
	if entries == nil {
		entries = []*bean.Bean{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode destination file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".dirsync-*")
	if err != nil {
		return fmt.Errorf("failed to write destination file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write destination file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write destination file: %w", err)
	}
	return os.Rename(tmp.Name(), f.Path)
}

func indexOf(entries []*bean.Bean, dn string) int {
	for i, e := range entries {
		if bean.SameName(e.DN, dn) {
			return i
		}
	}
	return -1
}

// ApplyOperation applies op to an in-memory list of entries with directory
// semantics and returns the updated list.
func ApplyOperation(entries []*bean.Bean, op *reconcile.Operation) ([]*bean.Bean, error) {
	idx := indexOf(entries, op.DN)

	switch op.Kind {
	case reconcile.AddEntry:
		if idx >= 0 {
			return nil, wrapError(string(op.Kind), op.DN, ErrEntryExists)
		}
		entry := bean.New(op.DN)
		for _, change := range op.Changes {
			if !change.Attribute.IsEmpty() {
				entry.SetAttribute(change.Attribute.Clone())
			}
		}
		return append(entries, entry), nil

	case reconcile.DeleteEntry:
		if idx < 0 {
			return nil, wrapError(string(op.Kind), op.DN, ErrNoSuchEntry)
		}
		return append(entries[:idx], entries[idx+1:]...), nil

	case reconcile.ModifyEntry:
		if idx < 0 {
			return nil, wrapError(string(op.Kind), op.DN, ErrNoSuchEntry)
		}
		entry := entries[idx]
		for _, change := range op.Changes {
			applyChange(entry, change)
		}
		return entries, nil

	case reconcile.RenameEntry:
		if idx < 0 {
			return nil, wrapError(string(op.Kind), op.DN, ErrNoSuchEntry)
		}
		if other := indexOf(entries, op.NewDN); other >= 0 && other != idx {
			return nil, wrapError(string(op.Kind), op.NewDN, ErrEntryExists)
		}
		entries[idx].DN = op.NewDN
		return entries, nil
	}
	return nil, wrapError(string(op.Kind), op.DN, fmt.Errorf("unknown operation kind %q", op.Kind))
}

func applyChange(entry *bean.Bean, change reconcile.AttributeChange) {
	name := change.Attribute.Name
	switch change.Type {
	case reconcile.ChangeAdd:
		existing := entry.Attribute(name)
		if existing == nil {
			entry.SetAttribute(change.Attribute.Clone())
			return
		}
		existing.Add(bean.MissingFrom(existing.Values, change.Attribute.Clone().Values)...)
	case reconcile.ChangeReplace:
		if change.Attribute.IsEmpty() {
			entry.RemoveAttribute(name)
			return
		}
		entry.SetAttribute(change.Attribute.Clone())
	case reconcile.ChangeRemove:
		entry.RemoveAttribute(name)
	}
}
