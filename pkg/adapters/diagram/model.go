// Package diagram is a reference domain adapter: a service-diagram model
// (nodes, edges, styling attributes) driven entirely through op strings. It
// implements the full adapter contract, including reversible events and
// snapshot-based batch rollback, and doubles as the wiring example for
// embedding the command layer in a real domain.
package diagram

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Node is a single element in the diagram.
type Node struct {
	Name  string            `yaml:"name"`
	Kind  string            `yaml:"kind"`
	Attrs map[string]string `yaml:"attrs,omitempty"`
}

// Edge connects two nodes. Directed edges come from `->`; `<->` and `--`
// produce undirected ones.
type Edge struct {
	From     string            `yaml:"from"`
	To       string            `yaml:"to"`
	Directed bool              `yaml:"directed"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
}

// Options are the typed session params accepted by `new`.
type Options struct {
	Theme     string `yaml:"theme,omitempty" mapstructure:"theme"`
	Direction string `yaml:"direction,omitempty" mapstructure:"direction"`
}

// Diagram is the model handle. The byName index is derived state, rebuilt
// after undo/redo rather than serialized.
type Diagram struct {
	Title   string  `yaml:"title"`
	Options Options `yaml:"options,omitempty"`
	Nodes   []*Node `yaml:"nodes,omitempty"`
	Edges   []*Edge `yaml:"edges,omitempty"`

	byName map[string]*Node
}

// NewDiagram creates an empty diagram with its index ready.
func NewDiagram(title string, opts Options) *Diagram {
	return &Diagram{
		Title:   title,
		Options: opts,
		byName:  make(map[string]*Node),
	}
}

// rebuildIndex rebuilds the name lookup from the node list.
func (d *Diagram) rebuildIndex() {
	d.byName = make(map[string]*Node, len(d.Nodes))
	for _, n := range d.Nodes {
		d.byName[n.Name] = n
	}
}

// lookup returns the node with the given name.
func (d *Diagram) lookup(name string) (*Node, bool) {
	n, ok := d.byName[name]
	return n, ok
}

func (d *Diagram) addNode(n *Node) {
	d.Nodes = append(d.Nodes, n)
	d.byName[n.Name] = n
}

func (d *Diagram) removeNode(name string) {
	for i, n := range d.Nodes {
		if n.Name == name {
			d.Nodes = append(d.Nodes[:i], d.Nodes[i+1:]...)
			break
		}
	}
	delete(d.byName, name)
}

func (d *Diagram) addEdge(e *Edge) {
	d.Edges = append(d.Edges, e)
}

// removeEdge detaches one edge, preferring pointer identity so a parallel
// edge with the same endpoints is left alone. The value fallback keeps
// event reversal working after a snapshot restore has swapped in clones.
func (d *Diagram) removeEdge(target *Edge) {
	for i, e := range d.Edges {
		if e == target {
			d.Edges = append(d.Edges[:i], d.Edges[i+1:]...)
			return
		}
	}
	for i, e := range d.Edges {
		if e.From == target.From && e.To == target.To && e.Directed == target.Directed {
			d.Edges = append(d.Edges[:i], d.Edges[i+1:]...)
			return
		}
	}
}

// removeEdgesTouching detaches every edge with name at either end and
// returns them in their original order.
func (d *Diagram) removeEdgesTouching(name string) []*Edge {
	var severed []*Edge
	kept := d.Edges[:0]
	for _, e := range d.Edges {
		if e.From == name || e.To == name {
			severed = append(severed, e)
		} else {
			kept = append(kept, e)
		}
	}
	d.Edges = kept
	return severed
}

// removeEdgesBetween detaches every edge between a and b, either direction.
func (d *Diagram) removeEdgesBetween(a, b string) []*Edge {
	var severed []*Edge
	kept := d.Edges[:0]
	for _, e := range d.Edges {
		if (e.From == a && e.To == b) || (e.From == b && e.To == a) {
			severed = append(severed, e)
		} else {
			kept = append(kept, e)
		}
	}
	d.Edges = kept
	return severed
}

// Save writes the diagram to a YAML file.
func (d *Diagram) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal diagram: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write diagram: %w", err)
	}
	return nil
}

// Load reads a diagram back from a YAML file and rebuilds its index.
func Load(path string) (*Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read diagram: %w", err)
	}
	var d Diagram
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse diagram: %w", err)
	}
	d.rebuildIndex()
	return &d, nil
}

// clone deep-copies the diagram without its index.
func (d *Diagram) clone() *Diagram {
	out := &Diagram{Title: d.Title, Options: d.Options}
	for _, n := range d.Nodes {
		out.Nodes = append(out.Nodes, &Node{Name: n.Name, Kind: n.Kind, Attrs: cloneAttrs(n.Attrs)})
	}
	for _, e := range d.Edges {
		out.Edges = append(out.Edges, &Edge{From: e.From, To: e.To, Directed: e.Directed, Attrs: cloneAttrs(e.Attrs)})
	}
	return out
}

func cloneAttrs(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
