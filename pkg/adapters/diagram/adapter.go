package diagram

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/opcmd/pkg/eventlog"
	"github.com/aretw0/opcmd/pkg/format"
	"github.com/aretw0/opcmd/pkg/op"
	"github.com/aretw0/opcmd/pkg/ports"
	"github.com/aretw0/opcmd/pkg/registry"
	"github.com/aretw0/opcmd/pkg/token"
)

// Adapter implements the adapter contract for the diagram domain.
type Adapter struct{}

var _ ports.Adapter[*Diagram, *Event] = Adapter{}
var _ ports.Snapshotter[*Diagram] = Adapter{}

// Verbs returns the domain's verb specifications for the registry.
func Verbs() []registry.VerbSpec {
	return []registry.VerbSpec{
		{Verb: "add", Syntax: "add KIND NAME [key:value ...]", Category: "create",
			Description: "Add a node of the given kind."},
		{Verb: "connect", Syntax: "connect SRC -> TGT [key:value ...]", Category: "create",
			Description: "Connect two nodes. Use <-> or -- for undirected edges."},
		{Verb: "remove", Syntax: "remove NAME... | remove @kind:KIND | remove @all", Category: "edit",
			Description: "Remove nodes and their edges."},
		{Verb: "disconnect", Syntax: "disconnect A B", Category: "edit",
			Description: "Remove every edge between two nodes."},
		{Verb: "set", Syntax: "set NAME key:value ...", Category: "edit",
			Description: "Set node attributes."},
		{Verb: "title", Syntax: "title TEXT", Category: "edit",
			Description: "Rename the diagram."},
	}
}

// Sections returns the static reference-card sections for this domain.
func Sections() []registry.Section {
	return []registry.Section{
		{Title: "Selectors", Content: "  @all            every node\n  @kind:KIND      nodes of one kind"},
		{Title: "Queries", Content: "  digest | nodes [KIND] | edges"},
	}
}

func verbNames() []string {
	specs := Verbs()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Verb
	}
	return names
}

// CreateEmpty builds a fresh diagram. Loose params are decoded into typed
// Options; unknown keys are rejected so typos surface at session start.
func (Adapter) CreateEmpty(title string, params map[string]string) (*Diagram, error) {
	var opts Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &opts,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(params); err != nil {
		return nil, fmt.Errorf("invalid session params: %w", err)
	}
	return NewDiagram(title, opts), nil
}

func (Adapter) Serialize(d *Diagram, path string) error {
	return d.Save(path)
}

func (Adapter) Deserialize(path string) (*Diagram, error) {
	return Load(path)
}

func (Adapter) RebuildIndices(d *Diagram) {
	d.rebuildIndex()
}

func (Adapter) Digest(d *Diagram) string {
	return fmt.Sprintf("Diagram '%s': %d node(s), %d edge(s)", d.Title, len(d.Nodes), len(d.Edges))
}

func (Adapter) ReverseEvent(ev *Event, d *Diagram) {
	ev.revert(d)
}

func (Adapter) ReplayEvent(ev *Event, d *Diagram) {
	ev.apply(d)
}

// Snapshot deep-copies the diagram for batch rollback; Restore copies the
// snapshot back into the live handle.
func (Adapter) Snapshot(d *Diagram) any {
	return d.clone()
}

func (Adapter) Restore(d *Diagram, snapshot any) {
	snap, ok := snapshot.(*Diagram)
	if !ok {
		return
	}
	restored := snap.clone()
	d.Title = restored.Title
	d.Options = restored.Options
	d.Nodes = restored.Nodes
	d.Edges = restored.Edges
	d.rebuildIndex()
}

// record appends the event to the log and applies it to the diagram.
func record(ev *Event, d *Diagram, log *eventlog.Log[*Event]) {
	ev.apply(d)
	log.Append(ev)
}

// DispatchOp executes one parsed operation against the diagram.
func (a Adapter) DispatchOp(parsed *op.Op, d *Diagram, log *eventlog.Log[*Event]) ports.OpResult {
	switch parsed.Verb {
	case "add":
		return a.opAdd(parsed, d, log)
	case "connect":
		return a.opConnect(parsed, d, log)
	case "remove":
		return a.opRemove(parsed, d, log)
	case "disconnect":
		return a.opDisconnect(parsed, d, log)
	case "set":
		return a.opSet(parsed, d, log)
	case "title":
		return a.opTitle(parsed, d, log)
	default:
		msg := fmt.Sprintf("Unknown verb '%s'", parsed.Verb)
		if hint, ok := format.Suggest(parsed.Verb, verbNames()); ok {
			msg += fmt.Sprintf(". Did you mean '%s'?", hint)
		}
		return ports.OpResult{Message: msg}
	}
}

func fail(msg string, args ...any) ports.OpResult {
	return ports.OpResult{Message: fmt.Sprintf(msg, args...)}
}

func (Adapter) opAdd(parsed *op.Op, d *Diagram, log *eventlog.Log[*Event]) ports.OpResult {
	if len(parsed.Positionals) < 2 {
		return fail("add needs KIND and NAME")
	}
	kind, name := parsed.Positionals[0], parsed.Positionals[1]
	if _, exists := d.lookup(name); exists {
		return fail("Node '%s' already exists", name)
	}
	node := &Node{Name: name, Kind: kind, Attrs: cloneAttrs(parsed.Params)}
	record(&Event{Kind: EventAddNode, Node: node}, d, log)
	return ports.OpResult{Success: true, Message: fmt.Sprintf("Added %s '%s'", kind, name)}
}

func (Adapter) opConnect(parsed *op.Op, d *Diagram, log *eventlog.Log[*Event]) ports.OpResult {
	// Expected shape: SRC -> TGT (arrow is a positional token)
	if len(parsed.Positionals) != 3 || !token.IsArrow(parsed.Positionals[1]) {
		return fail("connect needs SRC -> TGT")
	}
	from, arrow, to := parsed.Positionals[0], parsed.Positionals[1], parsed.Positionals[2]
	for _, name := range []string{from, to} {
		if _, ok := d.lookup(name); !ok {
			return fail("Node '%s' not found", name)
		}
	}
	edge := &Edge{From: from, To: to, Directed: arrow == "->", Attrs: cloneAttrs(parsed.Params)}
	record(&Event{Kind: EventAddEdge, Edge: edge}, d, log)
	return ports.OpResult{Success: true, Prefix: "~",
		Message: fmt.Sprintf("Connected %s %s %s", from, arrow, to)}
}

// selectNodes resolves the remove target set from selectors and positionals.
func selectNodes(parsed *op.Op, d *Diagram) ([]*Node, error) {
	var picked []*Node
	seen := make(map[string]bool)
	add := func(n *Node) {
		if !seen[n.Name] {
			seen[n.Name] = true
			picked = append(picked, n)
		}
	}

	for _, sel := range parsed.Selectors {
		switch {
		case sel == "@all":
			for _, n := range d.Nodes {
				add(n)
			}
		case strings.HasPrefix(sel, "@kind:"):
			kind := strings.TrimPrefix(sel, "@kind:")
			for _, n := range d.Nodes {
				if n.Kind == kind {
					add(n)
				}
			}
		default:
			return nil, fmt.Errorf("unknown selector '%s'", sel)
		}
	}
	for _, name := range parsed.Positionals {
		n, ok := d.lookup(name)
		if !ok {
			return nil, fmt.Errorf("node '%s' not found", name)
		}
		add(n)
	}
	return picked, nil
}

func (Adapter) opRemove(parsed *op.Op, d *Diagram, log *eventlog.Log[*Event]) ports.OpResult {
	targets, err := selectNodes(parsed, d)
	if err != nil {
		return fail("%v", err)
	}
	if len(targets) == 0 {
		return fail("remove needs node names or a selector")
	}

	ev := &Event{Kind: EventRemoveNodes}
	for _, n := range targets {
		ev.Nodes = append(ev.Nodes, n)
		ev.Edges = append(ev.Edges, d.removeEdgesTouching(n.Name)...)
		d.removeNode(n.Name)
	}
	log.Append(ev)
	return ports.OpResult{Success: true, Prefix: "-",
		Message: fmt.Sprintf("Removed %d node(s)", len(targets))}
}

func (Adapter) opDisconnect(parsed *op.Op, d *Diagram, log *eventlog.Log[*Event]) ports.OpResult {
	if len(parsed.Positionals) != 2 {
		return fail("disconnect needs two node names")
	}
	a, b := parsed.Positionals[0], parsed.Positionals[1]
	severed := d.removeEdgesBetween(a, b)
	if len(severed) == 0 {
		return fail("No edges between '%s' and '%s'", a, b)
	}
	log.Append(&Event{Kind: EventRemoveEdges, Edges: severed})
	return ports.OpResult{Success: true, Prefix: "-",
		Message: fmt.Sprintf("Removed %d edge(s)", len(severed))}
}

func (Adapter) opSet(parsed *op.Op, d *Diagram, log *eventlog.Log[*Event]) ports.OpResult {
	if len(parsed.Positionals) != 1 {
		return fail("set needs a node name")
	}
	if len(parsed.Params) == 0 {
		return fail("set needs key:value pairs")
	}
	name := parsed.Positionals[0]
	node, ok := d.lookup(name)
	if !ok {
		return fail("Node '%s' not found", name)
	}

	ev := &Event{
		Kind:   EventSetAttrs,
		Target: name,
		Old:    make(map[string]string, len(parsed.Params)),
		New:    cloneAttrs(parsed.Params),
	}
	for k := range parsed.Params {
		ev.Old[k] = node.Attrs[k] // "" records absence
	}
	record(ev, d, log)
	return ports.OpResult{Success: true, Prefix: "*",
		Message: fmt.Sprintf("Set %d attr(s) on '%s'", len(parsed.Params), name)}
}

func (Adapter) opTitle(parsed *op.Op, d *Diagram, log *eventlog.Log[*Event]) ports.OpResult {
	if len(parsed.Positionals) == 0 {
		return fail("title needs text")
	}
	title := strings.Join(parsed.Positionals, " ")
	record(&Event{Kind: EventSetTitle, OldTitle: d.Title, NewTitle: title}, d, log)
	return ports.OpResult{Success: true, Message: fmt.Sprintf("Title set to '%s'", title)}
}

// DispatchQuery answers read-only queries: digest, nodes [kind], edges.
func (a Adapter) DispatchQuery(query string, d *Diagram) string {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return format.Result(false, "Empty query")
	}

	switch fields[0] {
	case "digest":
		return a.Digest(d)
	case "nodes":
		kind := ""
		if len(fields) > 1 {
			kind = fields[1]
		}
		var lines []string
		for _, n := range d.Nodes {
			if kind != "" && n.Kind != kind {
				continue
			}
			line := fmt.Sprintf("%s (%s)", n.Name, n.Kind)
			for k, v := range n.Attrs {
				line += fmt.Sprintf(" %s:%s", k, v)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			return "(no nodes)"
		}
		return strings.Join(lines, "\n")
	case "edges":
		var lines []string
		for _, e := range d.Edges {
			arrow := "->"
			if !e.Directed {
				arrow = "--"
			}
			lines = append(lines, fmt.Sprintf("%s %s %s", e.From, arrow, e.To))
		}
		if len(lines) == 0 {
			return "(no edges)"
		}
		return strings.Join(lines, "\n")
	default:
		return format.Result(false, fmt.Sprintf("Unknown query '%s'", fields[0]))
	}
}
