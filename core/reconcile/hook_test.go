package reconcile

import (
	"errors"
	"testing"

	"dirsync/core/bean"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCheckOtherModifications(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := New(fakeEvaluator(nil), zap.New(core))

	op := &Operation{Kind: RenameEntry, DN: "uid=a,ou=People", NewDN: "uid=b,ou=People"}
	group := &Operation{Kind: ModifyEntry, DN: "cn=staff,ou=Groups"}

	r.RegisterDependencyChecker("user", DependencyCheckerFunc(func(src, dst *bean.Bean, got *Operation) ([]*Operation, error) {
		assert.Same(t, op, got)
		return []*Operation{group}, nil
	}))
	r.RegisterDependencyChecker("failing", DependencyCheckerFunc(func(_, _ *bean.Bean, _ *Operation) ([]*Operation, error) {
		return nil, errors.New("boom")
	}))
	r.RegisterDependencyChecker("panicking", DependencyCheckerFunc(func(_, _ *bean.Bean, _ *Operation) ([]*Operation, error) {
		panic("unexpected")
	}))

	t.Run("Registered variant", func(t *testing.T) {
		dst := &bean.Bean{DN: op.DN, Variant: "user"}
		ops := r.CheckOtherModifications(nil, dst, op)
		require.Len(t, ops, 1)
		assert.Same(t, group, ops[0])
	})

	t.Run("Unregistered variant", func(t *testing.T) {
		dst := &bean.Bean{DN: op.DN, Variant: "group"}
		assert.Empty(t, r.CheckOtherModifications(nil, dst, op))
		assert.Equal(t, 1, logs.FilterMessage("No dependency checker registered").Len())
	})

	t.Run("Failure is swallowed", func(t *testing.T) {
		dst := &bean.Bean{DN: op.DN, Variant: "failing"}
		assert.Empty(t, r.CheckOtherModifications(nil, dst, op))
		assert.Equal(t, 1, logs.FilterMessage("Dependency check failed").Len())
	})

	t.Run("Panic is swallowed", func(t *testing.T) {
		dst := &bean.Bean{DN: op.DN, Variant: "panicking"}
		assert.Empty(t, r.CheckOtherModifications(nil, dst, op))
		assert.Equal(t, 1, logs.FilterMessage("Dependency checker panicked").Len())
	})

	t.Run("Unregister", func(t *testing.T) {
		r.RegisterDependencyChecker("user", nil)
		dst := &bean.Bean{DN: op.DN, Variant: "user"}
		assert.Empty(t, r.CheckOtherModifications(nil, dst, op))
	})

	t.Run("No destination", func(t *testing.T) {
		assert.Empty(t, r.CheckOtherModifications(nil, nil, op))
	})
}
