package diagram

// EventKind discriminates the reversible event union.
type EventKind string

const (
	EventAddNode     EventKind = "add_node"
	EventRemoveNodes EventKind = "remove_nodes"
	EventAddEdge     EventKind = "add_edge"
	EventRemoveEdges EventKind = "remove_edges"
	EventSetAttrs    EventKind = "set_attrs"
	EventSetTitle    EventKind = "set_title"
)

// Event records one mutation with enough state to reverse it exactly.
// Removed nodes keep their attributes and severed edges; attribute changes
// keep the prior values.
type Event struct {
	Kind EventKind

	Node  *Node   // EventAddNode
	Nodes []*Node // EventRemoveNodes
	Edge  *Edge   // EventAddEdge
	Edges []*Edge // EventRemoveNodes (severed), EventRemoveEdges

	Target string            // EventSetAttrs: node name
	Old    map[string]string // EventSetAttrs: prior values ("" = key was absent)
	New    map[string]string // EventSetAttrs

	OldTitle string // EventSetTitle
	NewTitle string // EventSetTitle
}

// apply performs the event's mutation on the diagram. Used both by the
// dispatch path (first application) and by redo.
func (ev *Event) apply(d *Diagram) {
	switch ev.Kind {
	case EventAddNode:
		d.addNode(ev.Node)
	case EventRemoveNodes:
		for _, n := range ev.Nodes {
			d.removeEdgesTouching(n.Name)
			d.removeNode(n.Name)
		}
	case EventAddEdge:
		d.addEdge(ev.Edge)
	case EventRemoveEdges:
		for _, e := range ev.Edges {
			d.removeEdgesBetween(e.From, e.To)
		}
	case EventSetAttrs:
		if n, ok := d.lookup(ev.Target); ok {
			for k, v := range ev.New {
				setAttr(n, k, v)
			}
		}
	case EventSetTitle:
		d.Title = ev.NewTitle
	}
}

// revert undoes the event's mutation. Exact inverse of apply for any event
// this adapter produced.
func (ev *Event) revert(d *Diagram) {
	switch ev.Kind {
	case EventAddNode:
		d.removeNode(ev.Node.Name)
	case EventRemoveNodes:
		for _, n := range ev.Nodes {
			d.addNode(n)
		}
		for _, e := range ev.Edges {
			d.addEdge(e)
		}
	case EventAddEdge:
		d.removeEdge(ev.Edge)
	case EventRemoveEdges:
		for _, e := range ev.Edges {
			d.addEdge(e)
		}
	case EventSetAttrs:
		if n, ok := d.lookup(ev.Target); ok {
			for k, v := range ev.Old {
				setAttr(n, k, v)
			}
		}
	case EventSetTitle:
		d.Title = ev.OldTitle
	}
}

// setAttr writes an attribute, deleting it when the value is empty so that
// reverting an attr that did not exist removes it again.
func setAttr(n *Node, key, value string) {
	if value == "" {
		delete(n.Attrs, key)
		return
	}
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}
