package syncoptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleTask = `
name: people
dn: '"uid=" + srcBean.attr.uid[0] + ",ou=People,dc=example,dc=com"'
default_policy: merge
write_attributes: [uid, cn, sn, mail, description]
binary_attributes: [jpegPhoto]
source:
  query: SELECT uid, cn, sn, mail FROM people
attributes:
  cn:
    policy: FORCE
  description:
    default_values: ['"managed by dirsync"']
  objectClass:
    policy: keep
    create_values: ['["top", "inetOrgPerson"]']
  sn:
    force_values: ['"Doe"']
`

func TestParseTask(t *testing.T) {
	task, err := ParseTask([]byte(peopleTask))
	require.NoError(t, err)

	assert.Equal(t, "people", task.Name)
	assert.Equal(t, "merge", task.DefaultPolicy)
	assert.Equal(t, []string{"uid"}, task.Pivot, "pivot defaults to uid")
	assert.Equal(t, "SELECT uid, cn, sn, mail FROM people", task.Source.Query)
	assert.True(t, task.IsBinary("JPEGPHOTO"))
	assert.False(t, task.IsBinary("cn"))
}

func TestParseTask_Defaults(t *testing.T) {
	task, err := ParseTask([]byte("name: minimal\n"))
	require.NoError(t, err)

	assert.Equal(t, "KEEP", task.DefaultPolicy)
	assert.Nil(t, task.WriteAttributes)

	opts := task.Options()
	assert.Equal(t, Keep, opts.Status("", "anything"))
	assert.Nil(t, opts.WriteAttributes())
	assert.True(t, CanWrite(opts, "anything"))
}

func TestParseTask_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		expectErr string
	}{
		{"Malformed YAML", "name: [", "failed to parse task"},
		{"Missing name", "dn: x\n", "invalid task name"},
		{"Bad name", "name: ../etc\n", "invalid task name"},
		{"Bad default policy", "name: t\ndefault_policy: sometimes\n", "unknown policy"},
		{"Bad attribute policy", "name: t\nattributes:\n  cn:\n    policy: always\n", "attribute cn"},
		{"Case collision", "name: t\nattributes:\n  cn: {}\n  CN: {}\n", "differ only by case"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTask([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectErr)
		})
	}
}

func TestTaskOptions(t *testing.T) {
	task, err := ParseTask([]byte(peopleTask))
	require.NoError(t, err)
	opts := task.Options()

	assert.Equal(t, "people", opts.TaskName())
	assert.Contains(t, opts.DN(), "ou=People")

	t.Run("Status", func(t *testing.T) {
		assert.Equal(t, Force, opts.Status("", "CN"))
		assert.Equal(t, Keep, opts.Status("", "objectclass"))
		assert.Equal(t, Merge, opts.Status("", "sn"), "falls back to the task default")
		assert.Equal(t, Merge, opts.Status("", "unconfigured"))
	})

	t.Run("Values", func(t *testing.T) {
		assert.Equal(t, []string{`"Doe"`}, opts.ForceValues("", "SN"))
		assert.Equal(t, []string{`"managed by dirsync"`}, opts.DefaultValues("", "description"))
		assert.Equal(t, []string{`["top", "inetOrgPerson"]`}, opts.CreateValues("", "objectClass"))
		assert.Nil(t, opts.ForceValues("", "cn"))
		assert.Nil(t, opts.DefaultValues("", "unconfigured"))
	})

	t.Run("AttributeNames", func(t *testing.T) {
		assert.Equal(t, []string{"sn"}, opts.ForceValuedAttributeNames())
		assert.Equal(t, []string{"description"}, opts.DefaultValuedAttributeNames())
		assert.Equal(t, []string{"objectClass"}, opts.CreateAttributeNames())
	})

	t.Run("WriteAttributes", func(t *testing.T) {
		assert.True(t, CanWrite(opts, "Mail"))
		assert.False(t, CanWrite(opts, "objectClass"))
	})

	t.Run("Immutable", func(t *testing.T) {
		values := opts.ForceValues("", "sn")
		values[0] = "tampered"
		assert.Equal(t, []string{`"Doe"`}, opts.ForceValues("", "sn"))
	})
}

func TestStatus_Text(t *testing.T) {
	var s Status
	require.NoError(t, s.UnmarshalText([]byte("force")))
	assert.Equal(t, Force, s)

	text, err := Merge.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "MERGE", string(text))

	assert.Error(t, s.UnmarshalText([]byte("nope")))
}
