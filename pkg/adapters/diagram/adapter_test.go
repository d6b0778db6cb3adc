package diagram_test

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/opcmd/pkg/adapters/diagram"
	"github.com/aretw0/opcmd/pkg/eventlog"
	"github.com/aretw0/opcmd/pkg/op"
	"github.com/aretw0/opcmd/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatch(t *testing.T, a diagram.Adapter, d *diagram.Diagram, log *eventlog.Log[*diagram.Event], opStr string) ports.OpResult {
	t.Helper()
	parsed, err := op.Parse(opStr)
	require.NoError(t, err)
	return a.DispatchOp(parsed, d, log)
}

func newModel(t *testing.T) (diagram.Adapter, *diagram.Diagram, *eventlog.Log[*diagram.Event]) {
	t.Helper()
	a := diagram.Adapter{}
	d, err := a.CreateEmpty("Test", nil)
	require.NoError(t, err)
	return a, d, eventlog.New[*diagram.Event]()
}

func TestCreateEmpty_DecodesOptions(t *testing.T) {
	a := diagram.Adapter{}
	d, err := a.CreateEmpty("Proj", map[string]string{"theme": "dark", "direction": "LR"})
	require.NoError(t, err)
	assert.Equal(t, "Proj", d.Title)
	assert.Equal(t, "dark", d.Options.Theme)
	assert.Equal(t, "LR", d.Options.Direction)
}

func TestCreateEmpty_RejectsUnknownParams(t *testing.T) {
	a := diagram.Adapter{}
	_, err := a.CreateEmpty("Proj", map[string]string{"them": "dark"})
	assert.Error(t, err)
}

func TestDispatchOp_AddAndConnect(t *testing.T) {
	a, d, log := newModel(t)

	result := dispatch(t, a, d, log, "add svc AuthService theme:blue")
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "AuthService")

	dispatch(t, a, d, log, "add db UserDB")
	result = dispatch(t, a, d, log, `connect AuthService -> UserDB label:queries`)
	assert.True(t, result.Success)
	assert.Equal(t, "~", result.Prefix)

	assert.Len(t, d.Nodes, 2)
	require.Len(t, d.Edges, 1)
	assert.Equal(t, "queries", d.Edges[0].Attrs["label"])
	assert.True(t, d.Edges[0].Directed)
	assert.Equal(t, 3, log.Position())
}

func TestDispatchOp_AddDuplicate(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	result := dispatch(t, a, d, log, "add svc A")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already exists")
}

func TestDispatchOp_ConnectUnknownNode(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	result := dispatch(t, a, d, log, "connect A -> Ghost")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Ghost")
	assert.Equal(t, 1, log.Position())
}

func TestDispatchOp_UndirectedEdge(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add svc B")
	dispatch(t, a, d, log, "connect A <-> B")
	require.Len(t, d.Edges, 1)
	assert.False(t, d.Edges[0].Directed)
}

func TestDispatchOp_RemoveBySelector(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add db B")
	dispatch(t, a, d, log, "add db C")
	dispatch(t, a, d, log, "connect A -> B")

	result := dispatch(t, a, d, log, "remove @kind:db")
	assert.True(t, result.Success)
	assert.Equal(t, "-", result.Prefix)
	assert.Contains(t, result.Message, "2 node(s)")
	assert.Len(t, d.Nodes, 1)
	assert.Empty(t, d.Edges, "edges touching removed nodes are severed")
}

func TestDispatchOp_RemoveAll(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add db B")
	result := dispatch(t, a, d, log, "remove @all")
	assert.True(t, result.Success)
	assert.Empty(t, d.Nodes)
}

func TestDispatchOp_Disconnect(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add svc B")
	dispatch(t, a, d, log, "connect A -> B")

	result := dispatch(t, a, d, log, "disconnect A B")
	assert.True(t, result.Success)
	assert.Empty(t, d.Edges)

	result = dispatch(t, a, d, log, "disconnect A B")
	assert.False(t, result.Success)
}

func TestDispatchOp_Set(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	result := dispatch(t, a, d, log, "set A theme:dark tier:backend")
	assert.True(t, result.Success)
	assert.Equal(t, "*", result.Prefix)

	node := d.Nodes[0]
	assert.Equal(t, "dark", node.Attrs["theme"])
	assert.Equal(t, "backend", node.Attrs["tier"])
}

func TestDispatchOp_Title(t *testing.T) {
	a, d, log := newModel(t)
	result := dispatch(t, a, d, log, `title "Payment Flow"`)
	assert.True(t, result.Success)
	assert.Equal(t, "Payment Flow", d.Title)
}

func TestDispatchOp_UnknownVerbSuggests(t *testing.T) {
	a, d, log := newModel(t)
	result := dispatch(t, a, d, log, "conect A -> B")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Unknown verb 'conect'")
	assert.Contains(t, result.Message, "Did you mean 'connect'?")
}

func TestEvents_ReverseThenReplay(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add db B")
	dispatch(t, a, d, log, "connect A -> B label:reads")
	dispatch(t, a, d, log, "set A theme:dark")

	// Undo everything, most-recent-first.
	for _, ev := range log.Undo(4) {
		a.ReverseEvent(ev, d)
	}
	a.RebuildIndices(d)
	assert.Empty(t, d.Nodes)
	assert.Empty(t, d.Edges)

	// Replay restores the exact state.
	for _, ev := range log.Redo(4) {
		a.ReplayEvent(ev, d)
	}
	a.RebuildIndices(d)
	require.Len(t, d.Nodes, 2)
	require.Len(t, d.Edges, 1)
	assert.Equal(t, "dark", d.Nodes[0].Attrs["theme"])
	assert.Equal(t, "reads", d.Edges[0].Attrs["label"])
}

func TestEvents_ReverseRemoveRestoresEdges(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add db B")
	dispatch(t, a, d, log, "connect A -> B")
	dispatch(t, a, d, log, "remove A")
	assert.Empty(t, d.Edges)

	for _, ev := range log.Undo(1) {
		a.ReverseEvent(ev, d)
	}
	a.RebuildIndices(d)
	assert.Len(t, d.Nodes, 2)
	assert.Len(t, d.Edges, 1)
}

func TestEvents_ReverseSetRestoresAbsence(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "set A theme:dark")
	for _, ev := range log.Undo(1) {
		a.ReverseEvent(ev, d)
	}
	_, present := d.Nodes[0].Attrs["theme"]
	assert.False(t, present, "attr that did not exist before set is removed on undo")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	snap := a.Snapshot(d)
	cursorBefore := log.Position()

	dispatch(t, a, d, log, "add db B")
	dispatch(t, a, d, log, "connect A -> B")
	require.Len(t, d.Nodes, 2)

	a.Restore(d, snap)
	assert.Len(t, d.Nodes, 1)
	assert.Empty(t, d.Edges)
	// Snapshot/restore never touches the log.
	assert.Greater(t, log.Position(), cursorBefore)
}

func TestEvents_ReverseAddEdgeAfterRestore(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add db B")
	dispatch(t, a, d, log, "connect A -> B")

	// Restore swaps in cloned edges; the logged event still points at the
	// originals. Reverting it must still detach the equivalent edge.
	a.Restore(d, a.Snapshot(d))
	require.Len(t, d.Edges, 1)

	for _, ev := range log.Undo(1) {
		a.ReverseEvent(ev, d)
	}
	assert.Empty(t, d.Edges)
}

func TestSerialize_RoundTrip(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc AuthService theme:blue")
	dispatch(t, a, d, log, "add db UserDB")
	dispatch(t, a, d, log, "connect AuthService -> UserDB label:queries")

	path := filepath.Join(t.TempDir(), "diagram.yaml")
	require.NoError(t, a.Serialize(d, path))

	loaded, err := a.Deserialize(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", loaded.Title)
	require.Len(t, loaded.Nodes, 2)
	require.Len(t, loaded.Edges, 1)
	assert.Equal(t, "queries", loaded.Edges[0].Attrs["label"])

	// Index is rebuilt on load: ops resolve nodes immediately.
	result := dispatch(t, a, loaded, eventlog.New[*diagram.Event](), "set AuthService tier:backend")
	assert.True(t, result.Success)
}

func TestDeserialize_MissingFile(t *testing.T) {
	a := diagram.Adapter{}
	_, err := a.Deserialize(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDispatchQuery(t *testing.T) {
	a, d, log := newModel(t)
	dispatch(t, a, d, log, "add svc A")
	dispatch(t, a, d, log, "add db B")
	dispatch(t, a, d, log, "connect A -> B")

	assert.Equal(t, "Diagram 'Test': 2 node(s), 1 edge(s)", a.DispatchQuery("digest", d))
	assert.Contains(t, a.DispatchQuery("nodes", d), "A (svc)")
	assert.Contains(t, a.DispatchQuery("nodes db", d), "B (db)")
	assert.NotContains(t, a.DispatchQuery("nodes db", d), "A (svc)")
	assert.Equal(t, "A -> B", a.DispatchQuery("edges", d))
	assert.Equal(t, "! Unknown query 'bogus'", a.DispatchQuery("bogus", d))
	assert.Equal(t, "! Empty query", a.DispatchQuery("  ", d))
}
