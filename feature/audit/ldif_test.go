package audit

import (
	"testing"

	"dirsync/core/bean"
	"dirsync/core/reconcile"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleSID = []byte{1, 2, 0, 0, 0, 0, 0, 5, 21, 0, 0, 0, 16, 0, 0, 0}

func sampleOperations() []*reconcile.Operation {
	return []*reconcile.Operation{
		{
			Kind: reconcile.AddEntry,
			DN:   "uid=alice,ou=People,dc=example,dc=com",
			Changes: []reconcile.AttributeChange{
				{Type: reconcile.ChangeAdd, Attribute: bean.NewAttribute("uid", bean.Text("alice"))},
				{Type: reconcile.ChangeAdd, Attribute: bean.NewAttribute("cn", bean.Text("Zoë"))},
				{Type: reconcile.ChangeAdd, Attribute: bean.NewAttribute("objectClass", bean.Texts("top", "inetOrgPerson")...)},
				{Type: reconcile.ChangeAdd, Attribute: bean.NewAttribute("objectSid", bean.Binary(sampleSID))},
				{Type: reconcile.ChangeAdd, Attribute: bean.NewAttribute("description", bean.Text(" leading"))},
				{Type: reconcile.ChangeAdd, Attribute: bean.NewAttribute("mail")},
			},
		},
		{
			Kind: reconcile.ModifyEntry,
			DN:   "uid=bob,ou=People,dc=example,dc=com",
			Changes: []reconcile.AttributeChange{
				{Type: reconcile.ChangeReplace, Attribute: bean.NewAttribute("mail", bean.Text("bob@example.com"))},
				{Type: reconcile.ChangeAdd, Attribute: bean.NewAttribute("memberOf", bean.Text("cn=staff,ou=Groups,dc=example,dc=com"))},
				{Type: reconcile.ChangeRemove, Attribute: bean.NewAttribute("description")},
			},
		},
		{
			Kind:  reconcile.RenameEntry,
			DN:    "uid=carol,ou=People,dc=example,dc=com",
			NewDN: "uid=caroline,ou=Staff,dc=example,dc=com",
		},
		{
			Kind: reconcile.DeleteEntry,
			DN:   "uid=zoë,ou=People",
		},
	}
}

func TestRenderLDIF_Golden(t *testing.T) {
	data, err := RenderLDIF(sampleOperations())
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden.ldif"))
	g.Assert(t, "operations", data)
}

func TestRenderLDIF_Empty(t *testing.T) {
	data, err := RenderLDIF(nil)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestRenderLDIF_RenameInPlace(t *testing.T) {
	data, err := RenderLDIF([]*reconcile.Operation{{
		Kind:  reconcile.RenameEntry,
		DN:    "uid=a,ou=People,dc=x",
		NewDN: "uid=b,ou=People,dc=x",
	}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "newrdn: uid=b\ndeleteoldrdn: 1\n")
	assert.NotContains(t, string(data), "newsuperior")
}

func TestRenderLDIF_Errors(t *testing.T) {
	_, err := RenderLDIF([]*reconcile.Operation{{Kind: "bogus", DN: "uid=a"}})
	assert.Error(t, err)

	_, err = RenderLDIF([]*reconcile.Operation{{
		Kind:    reconcile.ModifyEntry,
		DN:      "uid=a",
		Changes: []reconcile.AttributeChange{{Type: "bogus", Attribute: bean.NewAttribute("cn")}},
	}})
	assert.Error(t, err)
}

func TestIsSafeString(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"plain value", true},
		{" leading", false},
		{":colon", false},
		{"<url", false},
		{"trailing ", false},
		{"line\nbreak", false},
		{"Zoë", false},
		{"a:b<c", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSafeString(tt.in), "%q", tt.in)
	}
}

func TestDecodeSID(t *testing.T) {
	sid, ok := decodeSID(sampleSID)
	require.True(t, ok)
	assert.Equal(t, "S-1-5-21-16", sid)

	_, ok = decodeSID([]byte{1, 2, 0})
	assert.False(t, ok)
	_, ok = decodeSID(sampleSID[:12])
	assert.False(t, ok, "sub-authority count does not match length")
}
