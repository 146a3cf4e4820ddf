package egraph_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
)

const sampleJSON = `{
  "nodes": {
    "mul": {"op": "*", "children": ["two", "x"], "eclass": "top", "cost": 4},
    "shl": {"op": "<<", "children": ["x", "one"], "eclass": "top", "cost": 1},
    "x":   {"op": "x", "children": [], "eclass": "vx", "cost": 1},
    "two": {"op": "2", "children": [], "eclass": "c2"},
    "one": {"op": "1", "children": [], "eclass": "c1", "cost": 0.5}
  },
  "root_eclasses": ["top"],
  "class_data": {"top": {"type": "Expr"}}
}`

func TestReadJSON_PreservesFileOrder(t *testing.T) {
	g, err := egraph.ReadJSON(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	require.Equal(t, 4, g.NumClasses())
	assert.Equal(t, 5, g.NumNodes())
	assert.Equal(t, egraph.ClassID("top"), g.Class(0).ID)
	assert.Equal(t, egraph.ClassID("c2"), g.Class(1).ID)
	assert.Equal(t, egraph.ClassID("vx"), g.Class(2).ID)
	assert.Equal(t, egraph.ClassID("c1"), g.Class(3).ID)

	top := g.Class(0)
	require.Len(t, top.Nodes, 2)
	assert.Equal(t, egraph.NodeID("mul"), top.Nodes[0].ID)
	assert.Equal(t, []egraph.ClassID{"c2", "vx"}, top.Nodes[0].Children)
	assert.Equal(t, cost.MustNew(1), g.Class(1).Nodes[0].Cost, "missing cost defaults to 1")
	assert.Equal(t, cost.MustNew(0.5), g.Class(3).Nodes[0].Cost)
	assert.Equal(t, []egraph.ClassID{"top"}, g.Roots())
}

func TestReadJSON_Malformed(t *testing.T) {
	cases := map[string]string{
		"not an object":   `[1,2]`,
		"bad node":        `{"nodes": {"a": 3}, "root_eclasses": ["c"]}`,
		"missing child":   `{"nodes": {"a": {"op":"a","children":["zz"],"eclass":"c"}}, "root_eclasses": ["c"]}`,
		"truncated":       `{"nodes": {"a": {"op":"a"`,
		"bad roots shape": `{"nodes": {}, "root_eclasses": "c"}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := egraph.ReadJSON(strings.NewReader(input))
			require.ErrorIs(t, err, egraph.ErrMalformedJSON)
		})
	}
}

func TestReadJSON_NegativeCost(t *testing.T) {
	_, err := egraph.ReadJSON(strings.NewReader(
		`{"nodes": {"a": {"op":"a","children":[],"eclass":"c","cost":-2}}, "root_eclasses": ["c"]}`))
	require.ErrorIs(t, err, egraph.ErrInvalidCost)
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	g, err := egraph.ReadJSON(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.WriteJSON(&buf))

	back, err := egraph.ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.NumClasses(), back.NumClasses())
	assert.Equal(t, g.NumNodes(), back.NumNodes())
	assert.Equal(t, g.Roots(), back.Roots())
	for i := 0; i < g.NumClasses(); i++ {
		assert.Equal(t, g.Class(i).ID, back.Class(i).ID)
		for j := range g.Class(i).Nodes {
			assert.Equal(t, g.Class(i).Nodes[j].Cost, back.Class(i).Nodes[j].Cost)
			assert.Equal(t, g.Class(i).Nodes[j].Children, back.Class(i).Nodes[j].Children)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o600))

	g, err := egraph.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NumClasses())

	_, err = egraph.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	out := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, g.WriteFile(out))
	again, err := egraph.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, g.NumNodes(), again.NumNodes())
}
