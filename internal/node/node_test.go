package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectPreservesKeyOrder(t *testing.T) {
	n, err := Parse("test.json", []byte(`{"b": 1, "a": 2, "c": 3}`))
	require.NoError(t, err)
	obj, err := n.AsObject()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, obj.Keys())
}

func TestSerializeRoundTrip(t *testing.T) {
	n, err := Parse("test.json", []byte(`{"name": "widget", "count": 3, "tags": ["a", "b"], "ok": true, "extra": null}`))
	require.NoError(t, err)
	text, err := Serialize(n)
	require.NoError(t, err)

	reparsed, err := Parse("test.json", []byte(text))
	require.NoError(t, err)
	assert.True(t, Equal(n, reparsed))
}

func TestTypeMismatchError(t *testing.T) {
	n := Str("hello")
	_, err := n.AsNumber()
	require.Error(t, err)
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, KindNumber, mismatch.Expected)
	assert.Equal(t, KindString, mismatch.Actual)
}

func TestStringValuePermissive(t *testing.T) {
	assert.Equal(t, "hi", Str("hi").StringValue())
	assert.Equal(t, "", Bool(true).StringValue())
}

func TestEqualIgnoresObjectKeyOrder(t *testing.T) {
	a := Obj(ObjectFrom(Str("x"), IntNode(1), Str("y"), IntNode(2)))
	b := Obj(ObjectFrom(Str("y"), IntNode(2), Str("x"), IntNode(1)))
	assert.True(t, Equal(a, b))
}

func TestNumberArbitraryPrecision(t *testing.T) {
	n, err := ParseNumber("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", n.String())
	assert.True(t, n.IsInt())
}

func TestNumberEqualityIgnoresSpelling(t *testing.T) {
	a, err := ParseNumber("1")
	require.NoError(t, err)
	b, err := ParseNumber("1.0")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestObjectCloneIsIndependent(t *testing.T) {
	o := NewObject()
	o.Put("a", IntNode(1))
	c := o.Clone()
	c.Put("b", IntNode(2))
	assert.Equal(t, 1, o.Length())
	assert.Equal(t, 2, c.Length())
}
