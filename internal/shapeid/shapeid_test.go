package shapeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	id, err := Parse("smithy.example#Widget$name")
	require.NoError(t, err)
	assert.Equal(t, "smithy.example", id.Namespace)
	assert.Equal(t, "Widget", id.Name)
	assert.Equal(t, "name", id.Member)
	assert.Equal(t, "smithy.example#Widget$name", id.String())
}

func TestParseWithoutMember(t *testing.T) {
	id, err := Parse("smithy.api#String")
	require.NoError(t, err)
	assert.False(t, id.HasMember())
	assert.Equal(t, "smithy.api#String", id.String())
}

func TestParseRejectsMissingHash(t *testing.T) {
	_, err := Parse("NoHashHere")
	assert.Error(t, err)
}

func TestParseRejectsEmptyMember(t *testing.T) {
	_, err := Parse("ns#Name$")
	assert.Error(t, err)
}

func TestParseRejectsMalformedNamespace(t *testing.T) {
	_, err := Parse("1bad.ns#Name")
	assert.Error(t, err)
}

func TestRootDropsMember(t *testing.T) {
	id := New("ns", "Name", "member")
	assert.Equal(t, New("ns", "Name", ""), id.Root())
}

func TestWithMember(t *testing.T) {
	id := New("ns", "Name", "")
	withMember := id.WithMember("foo")
	assert.Equal(t, "foo", withMember.Member)
	assert.True(t, withMember.HasMember())
}

func TestIsZero(t *testing.T) {
	assert.True(t, ID{}.IsZero())
	assert.False(t, New("ns", "Name", "").IsZero())
}

func TestMustParsePanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { MustParse("not-a-shape-id") })
}

func TestIDComparableAsMapKey(t *testing.T) {
	m := map[ID]bool{}
	a := New("ns", "A", "")
	b := New("ns", "A", "")
	m[a] = true
	assert.True(t, m[b])
}
