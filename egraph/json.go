package egraph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/katalvlaran/egraphx/cost"
)

// serializedNode mirrors one entry of the egraph-serialize "nodes" object.
// Children name nodes, not classes; the class of a child is that node's eclass.
type serializedNode struct {
	Op       string   `json:"op"`
	Children []string `json:"children"`
	EClass   string   `json:"eclass"`
	Cost     *float64 `json:"cost,omitempty"`
}

// defaultNodeCost is applied when a serialized node omits "cost".
const defaultNodeCost = 1.0

// LoadFile reads and decodes the egraph-serialize JSON file at path.
func LoadFile(path string) (*EGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("egraph: open %s: %w", path, err)
	}
	defer f.Close()

	g, err := ReadJSON(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("egraph: load %s: %w", path, err)
	}

	return g, nil
}

// ReadJSON decodes the egraph-serialize format:
//
//	{"nodes": {"<node>": {"op": "+", "children": ["<node>", ...], "eclass": "<class>", "cost": 1}},
//	 "root_eclasses": ["<class>", ...],
//	 "class_data": {...}}
//
// The "nodes" object is streamed token by token so class and node indices
// follow file order. Unknown top-level keys (class_data, …) are skipped.
func ReadJSON(r io.Reader) (*EGraph, error) {
	var (
		dec   = json.NewDecoder(r)
		ids   []string
		nodes = make(map[string]serializedNode)
		roots []string
	)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "nodes":
			if ids, err = readNodes(dec, nodes); err != nil {
				return nil, err
			}
		case "root_eclasses":
			if err = dec.Decode(&roots); err != nil {
				return nil, fmt.Errorf("%w: root_eclasses: %v", ErrMalformedJSON, err)
			}
		default:
			var skip json.RawMessage
			if err = dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrMalformedJSON, key, err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return buildSerialized(ids, nodes, roots)
}

// readNodes consumes the "nodes" object, returning node ids in file order.
func readNodes(dec *json.Decoder, into map[string]serializedNode) ([]string, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var ids []string
	for dec.More() {
		id, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var n serializedNode
		if err = dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrMalformedJSON, id, err)
		}
		if _, dup := into[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, id)
		}
		into[id] = n
		ids = append(ids, id)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return ids, nil
}

func buildSerialized(ids []string, nodes map[string]serializedNode, roots []string) (*EGraph, error) {
	b := NewBuilder()
	for _, id := range ids {
		sn := nodes[id]
		c := defaultNodeCost
		if sn.Cost != nil {
			c = *sn.Cost
		}
		nc, err := cost.New(c)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrInvalidCost, id, err)
		}
		children := make([]ClassID, len(sn.Children))
		for k, child := range sn.Children {
			cn, ok := nodes[child]
			if !ok {
				return nil, fmt.Errorf("%w: node %q references missing node %q", ErrMalformedJSON, id, child)
			}
			children[k] = ClassID(cn.EClass)
		}
		if err = b.AddNode(ClassID(sn.EClass), Node{
			ID:       NodeID(id),
			Op:       sn.Op,
			Cost:     nc,
			Children: children,
		}); err != nil {
			return nil, err
		}
	}
	for _, r := range roots {
		b.AddRoot(ClassID(r))
	}

	return b.Build()
}

// WriteJSON encodes g in the egraph-serialize format, classes and nodes in
// index order. A child class is written as its first member node, which is
// exact for graphs holding one node per class (see extract.Prune).
func (g *EGraph) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("{\n  \"nodes\": {")

	first := true
	for ci := range g.classes {
		cls := &g.classes[ci]
		for ni := range cls.Nodes {
			n := &cls.Nodes[ni]
			children := make([]string, len(n.kids))
			for k, kid := range n.kids {
				children[k] = string(g.classes[kid].Nodes[0].ID)
			}
			c := n.Cost.Float64()
			entry, err := json.Marshal(serializedNode{
				Op:       n.Op,
				Children: children,
				EClass:   string(cls.ID),
				Cost:     &c,
			})
			if err != nil {
				return fmt.Errorf("egraph: encode node %q: %w", n.ID, err)
			}
			key, _ := json.Marshal(string(n.ID))
			if !first {
				buf.WriteByte(',')
			}
			first = false
			buf.WriteString("\n    ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(entry)
		}
	}
	buf.WriteString("\n  },\n  \"root_eclasses\": ")

	roots := make([]string, len(g.roots))
	for i, r := range g.roots {
		roots[i] = string(g.classes[r].ID)
	}
	rb, err := json.Marshal(roots)
	if err != nil {
		return fmt.Errorf("egraph: encode roots: %w", err)
	}
	buf.Write(rb)
	buf.WriteString("\n}\n")

	_, err = w.Write(buf.Bytes())

	return err
}

// WriteFile writes g to path with WriteJSON.
func (g *EGraph) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("egraph: create %s: %w", path, err)
	}
	if err = g.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrMalformedJSON, want, tok)
	}

	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", ErrMalformedJSON, tok)
	}

	return key, nil
}
