package syncoptions

import (
	"fmt"
	"regexp"
	"sort"

	"dirsync/core/bean"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

var taskNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// AttributePolicy configures a single attribute of a task.
type AttributePolicy struct {
	// Policy is FORCE, MERGE or KEEP. Empty means the task default policy.
	Policy string `yaml:"policy" json:"policy,omitempty"`
	// ForceValues are expressions whose results always overwrite the source values.
	ForceValues []string `yaml:"force_values" json:"force_values,omitempty"`
	// DefaultValues are expressions used when the source has no value.
	DefaultValues []string `yaml:"default_values" json:"default_values,omitempty"`
	// CreateValues are expressions used when the entry is created.
	CreateValues []string `yaml:"create_values" json:"create_values,omitempty"`
}

// SourceConfig configures the SQL source of a task.
type SourceConfig struct {
	// Query selects one row per source entry; every column becomes an attribute.
	Query string `yaml:"query" json:"query,omitempty"`
	// Table is read entirely when Query is empty. Its binary columns are
	// detected from the schema.
	Table string `yaml:"table" json:"table,omitempty"`
	// KeyColumn names the column holding the source DN, if any.
	KeyColumn string `yaml:"key_column" json:"key_column,omitempty"`
}

// Task is the YAML representation of a synchronization task.
type Task struct {
	Name             string                     `yaml:"name" json:"name"`
	DN               string                     `yaml:"dn" json:"dn,omitempty"`
	DefaultPolicy    string                     `yaml:"default_policy" json:"default_policy" default:"KEEP"`
	Pivot            []string                   `yaml:"pivot" json:"pivot" default:"[\"uid\"]"`
	WriteAttributes  []string                   `yaml:"write_attributes" json:"write_attributes,omitempty"`
	BinaryAttributes []string                   `yaml:"binary_attributes" json:"binary_attributes,omitempty"`
	Source           SourceConfig               `yaml:"source" json:"source"`
	Attributes       map[string]AttributePolicy `yaml:"attributes" json:"attributes,omitempty"`
}

// ParseTask decodes a YAML task file, applies defaults and validates it.
func ParseTask(data []byte) (*Task, error) {
	var task Task
	if err := yaml.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	if err := defaults.Set(&task); err != nil {
		return nil, fmt.Errorf("failed to apply task defaults: %w", err)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return &task, nil
}

// ValidTaskName reports whether name can be used as a task name.
func ValidTaskName(name string) bool {
	return taskNamePattern.MatchString(name)
}

// Validate checks the task name, policies and attribute names.
func (t *Task) Validate() error {
	if !ValidTaskName(t.Name) {
		return fmt.Errorf("invalid task name %q", t.Name)
	}
	if _, err := ParseStatus(t.DefaultPolicy); err != nil {
		return fmt.Errorf("task %s: default_policy: %w", t.Name, err)
	}
	seen := make(map[string]string, len(t.Attributes))
	for name, attr := range t.Attributes {
		key := bean.FoldName(name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("task %s: attributes %q and %q differ only by case", t.Name, prev, name)
		}
		seen[key] = name
		if attr.Policy == "" {
			continue
		}
		if _, err := ParseStatus(attr.Policy); err != nil {
			return fmt.Errorf("task %s: attribute %s: %w", t.Name, name, err)
		}
	}
	return nil
}

// IsBinary reports whether attr is declared as a binary attribute.
func (t *Task) IsBinary(attr string) bool {
	for _, name := range t.BinaryAttributes {
		if bean.SameName(name, attr) {
			return true
		}
	}
	return false
}

type attrOptions struct {
	status        Status
	forceValues   []string
	defaultValues []string
	createValues  []string
}

// taskOptions is the immutable Options view of a Task.
type taskOptions struct {
	name          string
	dn            string
	defaultStatus Status
	attrs         map[string]attrOptions
	force         []string
	defaults      []string
	create        []string
	write         []string
}

// Options returns an immutable policy view of the task. The task must be valid.
func (t *Task) Options() Options {
	opts := &taskOptions{
		name:  t.Name,
		dn:    t.DN,
		attrs: make(map[string]attrOptions, len(t.Attributes)),
	}
	opts.defaultStatus, _ = ParseStatus(t.DefaultPolicy)
	if t.WriteAttributes != nil {
		opts.write = append([]string{}, t.WriteAttributes...)
	}

	names := make([]string, 0, len(t.Attributes))
	for name := range t.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		policy := t.Attributes[name]
		status := opts.defaultStatus
		if policy.Policy != "" {
			status, _ = ParseStatus(policy.Policy)
		}
		opts.attrs[bean.FoldName(name)] = attrOptions{
			status:        status,
			forceValues:   cloneStrings(policy.ForceValues),
			defaultValues: cloneStrings(policy.DefaultValues),
			createValues:  cloneStrings(policy.CreateValues),
		}
		if policy.ForceValues != nil {
			opts.force = append(opts.force, name)
		}
		if policy.DefaultValues != nil {
			opts.defaults = append(opts.defaults, name)
		}
		if policy.CreateValues != nil {
			opts.create = append(opts.create, name)
		}
	}
	return opts
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

func (o *taskOptions) lookup(attr string) (attrOptions, bool) {
	a, ok := o.attrs[bean.FoldName(attr)]
	return a, ok
}

func (o *taskOptions) TaskName() string { return o.name }

func (o *taskOptions) DN() string { return o.dn }

func (o *taskOptions) Status(_, attr string) Status {
	if a, ok := o.lookup(attr); ok {
		return a.status
	}
	return o.defaultStatus
}

func (o *taskOptions) ForceValues(_, attr string) []string {
	a, _ := o.lookup(attr)
	return cloneStrings(a.forceValues)
}

func (o *taskOptions) DefaultValues(_, attr string) []string {
	a, _ := o.lookup(attr)
	return cloneStrings(a.defaultValues)
}

func (o *taskOptions) CreateValues(_, attr string) []string {
	a, _ := o.lookup(attr)
	return cloneStrings(a.createValues)
}

func (o *taskOptions) ForceValuedAttributeNames() []string { return cloneStrings(o.force) }

func (o *taskOptions) DefaultValuedAttributeNames() []string { return cloneStrings(o.defaults) }

func (o *taskOptions) CreateAttributeNames() []string { return cloneStrings(o.create) }

func (o *taskOptions) WriteAttributes() []string { return cloneStrings(o.write) }
