package session_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/aretw0/opcmd/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	title string
	data  []string
}

type fakeEvent struct {
	action string
	value  string
}

type fakeHooks struct {
	lastNewParams map[string]string
	lastSavePath  string
	rebuildCount  int
	failNew       error
	failSave      error
}

func (h *fakeHooks) OnNew(params map[string]string) (*fakeModel, error) {
	h.lastNewParams = params
	if h.failNew != nil {
		return nil, h.failNew
	}
	title := params["title"]
	if title == "" {
		title = "Untitled"
	}
	return &fakeModel{title: title}, nil
}

func (h *fakeHooks) OnOpen(path string) (*fakeModel, error) {
	return &fakeModel{title: fmt.Sprintf("Opened from %s", path)}, nil
}

func (h *fakeHooks) OnSave(model *fakeModel, path string) error {
	if h.failSave != nil {
		return h.failSave
	}
	h.lastSavePath = path
	return nil
}

func (h *fakeHooks) OnRebuildIndices(model *fakeModel) {
	h.rebuildCount++
}

func (h *fakeHooks) Digest(model *fakeModel) string {
	return "Model: " + model.title
}

func newDispatcher() (*session.Dispatcher[*fakeModel, fakeEvent], *fakeHooks) {
	hooks := &fakeHooks{}
	reverse := func(ev fakeEvent, m *fakeModel) {
		if ev.action == "add" {
			if i := slices.Index(m.data, ev.value); i >= 0 {
				m.data = slices.Delete(m.data, i, i+1)
			}
		}
	}
	replay := func(ev fakeEvent, m *fakeModel) {
		if ev.action == "add" {
			m.data = append(m.data, ev.value)
		}
	}
	return session.New(hooks, reverse, replay), hooks
}

func TestDispatch_NewCreatesModel(t *testing.T) {
	d, _ := newDispatcher()
	result := d.Dispatch(`new "My Project"`)
	assert.Equal(t, `+ New session 'My Project'`, result)

	model, ok := d.Model()
	require.True(t, ok)
	assert.Equal(t, "My Project", model.title)
}

func TestDispatch_NewWithParams(t *testing.T) {
	d, hooks := newDispatcher()
	result := d.Dispatch(`new "Test" tempo:120 key:C`)
	assert.Contains(t, result, "+")
	assert.Equal(t, "120", hooks.lastNewParams["tempo"])
	assert.Equal(t, "C", hooks.lastNewParams["key"])
	assert.Equal(t, "Test", hooks.lastNewParams["title"])
}

func TestDispatch_NewParamKeysLowercased(t *testing.T) {
	d, hooks := newDispatcher()
	d.Dispatch("new Theme:dark")
	assert.Equal(t, "dark", hooks.lastNewParams["theme"])
}

func TestDispatch_NewExplicitTitleWins(t *testing.T) {
	d, hooks := newDispatcher()
	d.Dispatch(`new Scratch title:Real`)
	assert.Equal(t, "Real", hooks.lastNewParams["title"])
}

func TestDispatch_NewDefaultTitle(t *testing.T) {
	d, _ := newDispatcher()
	assert.Equal(t, "+ New session 'Untitled'", d.Dispatch("new"))
}

func TestDispatch_NewResetsEventLog(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "First"`)
	d.Log().Append(fakeEvent{"add", "x"})
	assert.Equal(t, 1, d.Log().Position())

	d.Dispatch(`new "Second"`)
	assert.Equal(t, 0, d.Log().Position())
}

func TestDispatch_NewHookFailure(t *testing.T) {
	d, hooks := newDispatcher()
	hooks.failNew = errors.New("disk full")
	result := d.Dispatch(`new "Test"`)
	assert.Equal(t, "! Failed to create: disk full", result)
	_, ok := d.Model()
	assert.False(t, ok)
}

func TestDispatch_Open(t *testing.T) {
	d, hooks := newDispatcher()
	result := d.Dispatch("open ./test.file")
	assert.Equal(t, "+ Opened './test.file'", result)

	model, ok := d.Model()
	require.True(t, ok)
	assert.Equal(t, "Opened from ./test.file", model.title)
	assert.Equal(t, "./test.file", d.FilePath())
	assert.Equal(t, 1, hooks.rebuildCount)
}

func TestDispatch_OpenMissingPath(t *testing.T) {
	d, _ := newDispatcher()
	assert.Equal(t, "! Missing file path", d.Dispatch("open"))
}

func TestDispatch_SaveWithAsPath(t *testing.T) {
	d, hooks := newDispatcher()
	d.Dispatch(`new "Test"`)
	result := d.Dispatch("save as:./output.file")
	assert.Equal(t, "+ Saved to './output.file'", result)
	assert.Equal(t, "./output.file", hooks.lastSavePath)
}

func TestDispatch_SaveNoModel(t *testing.T) {
	d, _ := newDispatcher()
	assert.Equal(t, "! No model to save", d.Dispatch("save as:./output.file"))
}

func TestDispatch_SaveNoPath(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	assert.Equal(t, "! No file path set", d.Dispatch("save"))
}

func TestDispatch_SaveRemembersPath(t *testing.T) {
	d, hooks := newDispatcher()
	d.Dispatch(`new "Test"`)
	d.Dispatch("save as:./output.file")
	result := d.Dispatch("save")
	assert.Equal(t, "+ Saved to './output.file'", result)
	assert.Equal(t, "./output.file", hooks.lastSavePath)
}

func TestDispatch_SaveHookFailure(t *testing.T) {
	d, hooks := newDispatcher()
	hooks.failSave = errors.New("read-only filesystem")
	d.Dispatch(`new "Test"`)
	result := d.Dispatch("save as:./out")
	assert.Equal(t, "! Failed to save: read-only filesystem", result)
}

func TestDispatch_Checkpoint(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	result := d.Dispatch("checkpoint v1")
	assert.Equal(t, "+ Checkpoint 'v1' created (at event #1)", result)
}

func TestDispatch_CheckpointMissingName(t *testing.T) {
	d, _ := newDispatcher()
	assert.Equal(t, "! Missing checkpoint name", d.Dispatch("checkpoint"))
}

func TestDispatch_Undo(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	model, _ := d.Model()
	model.data = append(model.data, "item1")
	d.Log().Append(fakeEvent{"add", "item1"})

	result := d.Dispatch("undo")
	assert.Equal(t, "+ Undone 1 event(s)", result)
	assert.NotContains(t, model.data, "item1")
}

func TestDispatch_UndoNoModel(t *testing.T) {
	d, _ := newDispatcher()
	assert.Equal(t, "! No model loaded", d.Dispatch("undo"))
}

func TestDispatch_UndoNothing(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	assert.Equal(t, "! Nothing to undo", d.Dispatch("undo"))
}

func TestDispatch_UndoToCheckpoint(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	d.Dispatch("checkpoint v1")
	model, _ := d.Model()
	model.data = append(model.data, "a")
	d.Log().Append(fakeEvent{"add", "a"})
	model.data = append(model.data, "b")
	d.Log().Append(fakeEvent{"add", "b"})

	result := d.Dispatch("undo to:v1")
	assert.Equal(t, "+ Undone 2 event(s) to checkpoint 'v1'", result)
	assert.Empty(t, model.data)
}

func TestDispatch_UndoToUnknownCheckpoint(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	assert.Equal(t, "! No checkpoint named 'nope'", d.Dispatch("undo to:nope"))
}

func TestDispatch_UndoRebuildsIndicesOnce(t *testing.T) {
	d, hooks := newDispatcher()
	d.Dispatch(`new "Test"`)
	model, _ := d.Model()
	before := hooks.rebuildCount

	d.Dispatch("checkpoint v1")
	for _, v := range []string{"a", "b", "c"} {
		model.data = append(model.data, v)
		d.Log().Append(fakeEvent{"add", v})
	}
	d.Dispatch("undo to:v1")
	assert.Equal(t, before+1, hooks.rebuildCount)
}

func TestDispatch_Redo(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	model, _ := d.Model()
	model.data = append(model.data, "item1")
	d.Log().Append(fakeEvent{"add", "item1"})
	d.Dispatch("undo")

	result := d.Dispatch("redo")
	assert.Equal(t, "+ Redone 1 event(s)", result)
	assert.Contains(t, model.data, "item1")
}

func TestDispatch_RedoCount(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	model, _ := d.Model()
	for _, v := range []string{"a", "b"} {
		model.data = append(model.data, v)
		d.Log().Append(fakeEvent{"add", v})
	}
	d.Dispatch("undo")
	d.Dispatch("undo")

	assert.Equal(t, "+ Redone 2 event(s)", d.Dispatch("redo 2"))
	assert.Equal(t, []string{"a", "b"}, model.data)
}

func TestDispatch_RedoNoModel(t *testing.T) {
	d, _ := newDispatcher()
	assert.Equal(t, "! No model loaded", d.Dispatch("redo"))
}

func TestDispatch_RedoNothing(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Test"`)
	assert.Equal(t, "! Nothing to redo", d.Dispatch("redo"))
}

func TestDispatch_EmptyAction(t *testing.T) {
	d, _ := newDispatcher()
	var result string
	assert.NotPanics(t, func() { result = d.Dispatch("") })
	assert.Equal(t, "! Unknown session action: ''", result)
	assert.Equal(t, "! Unknown session action: ''", d.Dispatch("   \t "))
}

func TestDispatch_UnknownAction(t *testing.T) {
	d, _ := newDispatcher()
	result := d.Dispatch("explode")
	assert.Contains(t, result, "!")
	assert.Contains(t, result, "Unknown session action: 'explode'")
}

func TestDispatch_MalformedQuotingFallsBack(t *testing.T) {
	d, _ := newDispatcher()
	// Unclosed quote: the naive whitespace split still routes the verb.
	result := d.Dispatch(`new "Broken`)
	assert.Contains(t, result, "New session")
}

func TestDispatch_CheckpointUndoRoundTrip(t *testing.T) {
	d, _ := newDispatcher()
	d.Dispatch(`new "Proj"`)
	d.Dispatch("checkpoint v1")
	model, _ := d.Model()
	model.data = append(model.data, "x")
	d.Log().Append(fakeEvent{"add", "x"})

	result := d.Dispatch("undo to:v1")
	assert.Contains(t, result, "Undone 1 event")
	assert.Empty(t, model.data, "model state should equal its state right after new")
}
