package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID_JSON(t *testing.T) {
	b, err := json.Marshal(IntID(42))
	require.NoError(t, err)
	assert.Equal(t, "42", string(b))

	b, err = json.Marshal(StringID("article"))
	require.NoError(t, err)
	assert.Equal(t, `"article"`, string(b))

	var id NodeID
	require.NoError(t, json.Unmarshal([]byte(`17`), &id))
	assert.Equal(t, IntID(17), id)
	require.NoError(t, json.Unmarshal([]byte(`"#"`), &id))
	assert.True(t, id.IsRoot())

	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestNodeID_Equal(t *testing.T) {
	assert.True(t, IntID(10).Equal(StringID("10")))
	assert.False(t, IntID(10).Equal(IntID(11)))
	assert.False(t, NodeID{}.Equal(StringID("")))
	assert.True(t, NodeID{}.IsZero())
	assert.False(t, StringID("").IsZero())
}

func TestParseID(t *testing.T) {
	assert.Equal(t, IntID(7), ParseID("7"))
	assert.Equal(t, StringID("#"), ParseID("#"))
	assert.Equal(t, StringID("tags"), ParseID("tags"))
}

func TestNode_JSONShape(t *testing.T) {
	n := Node{ID: IntID(10), Parent: StringID("article"), Text: "Ten", State: State{Selected: true}}
	b, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":10,"parent":"article","text":"Ten","state":{"selected":true}}`, string(b))
}
