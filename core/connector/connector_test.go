package connector

import (
	"context"
	"errors"
	"testing"

	"dirsync/core/bean"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	src := SourceFunc(func(context.Context) ([]*bean.Bean, error) {
		return []*bean.Bean{bean.New("").Put("uid", bean.Text("alice"))}, nil
	})
	dst := SourceFunc(func(context.Context) ([]*bean.Bean, error) {
		return []*bean.Bean{bean.New("uid=alice,ou=People").Put("uid", bean.Text("alice"))}, nil
	})

	pairs, err := Pairs(context.Background(), src, dst, []string{"uid"})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.NotNil(t, pairs[0].Source)
	assert.NotNil(t, pairs[0].Destination)
}

func TestPairs_ListErrors(t *testing.T) {
	failing := SourceFunc(func(context.Context) ([]*bean.Bean, error) {
		return nil, errors.New("unreachable")
	})
	empty := SourceFunc(func(context.Context) ([]*bean.Bean, error) { return nil, nil })

	_, err := Pairs(context.Background(), failing, empty, []string{"uid"})
	assert.EqualError(t, err, "unreachable")

	_, err = Pairs(context.Background(), empty, failing, []string{"uid"})
	assert.EqualError(t, err, "unreachable")
}
