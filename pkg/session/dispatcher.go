package session

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/opcmd/internal/logging"
	"github.com/aretw0/opcmd/pkg/eventlog"
	"github.com/aretw0/opcmd/pkg/format"
	"github.com/aretw0/opcmd/pkg/ports"
	"github.com/aretw0/opcmd/pkg/token"
)

// Dispatcher routes session action strings to hooks and the event log.
// M is the domain model type, E the domain event type.
type Dispatcher[M, E any] struct {
	hooks   ports.SessionHooks[M]
	log     *eventlog.Log[E]
	reverse func(event E, model M)
	replay  func(event E, model M)

	model    M
	hasModel bool
	filePath string

	logger *slog.Logger
}

// Option configures the Dispatcher.
type Option[M, E any] func(*Dispatcher[M, E])

// WithLogger configures a logger for internal events.
func WithLogger[M, E any](logger *slog.Logger) Option[M, E] {
	return func(d *Dispatcher[M, E]) {
		d.logger = logger
	}
}

// New creates a Dispatcher with an empty event log. reverse and replay are
// the adapter callbacks invoked per event during undo and redo; they must be
// total over any event the adapter recorded.
func New[M, E any](
	hooks ports.SessionHooks[M],
	reverse func(event E, model M),
	replay func(event E, model M),
	opts ...Option[M, E],
) *Dispatcher[M, E] {
	d := &Dispatcher[M, E]{
		hooks:   hooks,
		log:     eventlog.New[E](),
		reverse: reverse,
		replay:  replay,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Model returns the current model handle, and false while no session is
// active.
func (d *Dispatcher[M, E]) Model() (M, bool) {
	return d.model, d.hasModel
}

// SetModel replaces the model handle. Intended for adapters that manage the
// model outside the lifecycle commands; it does not reset the log.
func (d *Dispatcher[M, E]) SetModel(model M) {
	d.model = model
	d.hasModel = true
}

// Log returns the session's event log.
func (d *Dispatcher[M, E]) Log() *eventlog.Log[E] {
	return d.log
}

// FilePath returns the remembered file path, empty if none.
func (d *Dispatcher[M, E]) FilePath() string {
	return d.filePath
}

// Dispatch routes a session action string to the appropriate handler and
// returns a single result line. It never panics past this boundary for hook
// failures; those come back as `!` lines.
func (d *Dispatcher[M, E]) Dispatch(action string) string {
	parts := tokenizeSession(strings.TrimSpace(action))
	command := ""
	var rest []string
	if len(parts) > 0 {
		command = strings.ToLower(parts[0])
		rest = parts[1:]
	}

	switch command {
	case "new":
		return d.handleNew(rest)
	case "open":
		return d.handleOpen(rest)
	case "save":
		return d.handleSave(rest)
	case "checkpoint":
		return d.handleCheckpoint(rest)
	case "undo":
		return d.handleUndo(rest)
	case "redo":
		return d.handleRedo(rest)
	default:
		return format.Result(false, fmt.Sprintf("Unknown session action: '%s'", command))
	}
}

func (d *Dispatcher[M, E]) handleNew(args []string) string {
	params := make(map[string]string)
	var positional []string
	for _, arg := range args {
		if strings.Contains(arg, ":") {
			k, v := token.SplitKeyValue(arg)
			params[strings.ToLower(k)] = v
		} else {
			positional = append(positional, arg)
		}
	}
	if _, explicit := params["title"]; !explicit && len(positional) > 0 {
		params["title"] = positional[0]
	}

	model, err := d.hooks.OnNew(params)
	if err != nil {
		return format.Result(false, fmt.Sprintf("Failed to create: %v", err))
	}
	d.model = model
	d.hasModel = true
	d.log = eventlog.New[E]() // history does not survive a model swap
	title := params["title"]
	if title == "" {
		title = "Untitled"
	}
	d.logger.Debug("session created", "title", title)
	return format.Result(true, fmt.Sprintf("New session '%s'", title))
}

func (d *Dispatcher[M, E]) handleOpen(args []string) string {
	if len(args) == 0 {
		return format.Result(false, "Missing file path")
	}
	path := args[0]
	model, err := d.hooks.OnOpen(path)
	if err != nil {
		return format.Result(false, fmt.Sprintf("Failed to open '%s': %v", path, err))
	}
	d.model = model
	d.hasModel = true
	d.log = eventlog.New[E]()
	d.filePath = path
	d.hooks.OnRebuildIndices(d.model)
	d.logger.Debug("session opened", "path", path)
	return format.Result(true, fmt.Sprintf("Opened '%s'", path))
}

func (d *Dispatcher[M, E]) handleSave(args []string) string {
	if !d.hasModel {
		return format.Result(false, "No model to save")
	}

	path := ""
	for _, arg := range args {
		if strings.HasPrefix(arg, "as:") {
			path = strings.TrimPrefix(arg, "as:")
		} else if !strings.HasPrefix(arg, "-") {
			path = arg
		}
	}
	if path != "" {
		d.filePath = path
	} else if d.filePath == "" {
		return format.Result(false, "No file path set")
	}

	if err := d.hooks.OnSave(d.model, d.filePath); err != nil {
		return format.Result(false, fmt.Sprintf("Failed to save: %v", err))
	}
	return format.Result(true, fmt.Sprintf("Saved to '%s'", d.filePath))
}

func (d *Dispatcher[M, E]) handleCheckpoint(args []string) string {
	if len(args) == 0 {
		return format.Result(false, "Missing checkpoint name")
	}
	name := args[0]
	d.log.Checkpoint(name)
	return format.Result(true,
		fmt.Sprintf("Checkpoint '%s' created (at event #%d)", name, d.log.Position()))
}

func (d *Dispatcher[M, E]) handleUndo(args []string) string {
	if !d.hasModel {
		return format.Result(false, "No model loaded")
	}

	toName := ""
	for _, arg := range args {
		if strings.HasPrefix(arg, "to:") {
			toName = strings.TrimPrefix(arg, "to:")
		}
	}

	var reversed []E
	if toName != "" {
		var ok bool
		reversed, ok = d.log.UndoTo(toName)
		if !ok {
			return format.Result(false, fmt.Sprintf("No checkpoint named '%s'", toName))
		}
	} else {
		reversed = d.log.Undo(1)
	}

	if len(reversed) == 0 {
		return format.Result(false, "Nothing to undo")
	}

	for _, ev := range reversed {
		d.reverse(ev, d.model)
	}
	d.hooks.OnRebuildIndices(d.model)

	if toName != "" {
		return format.Result(true,
			fmt.Sprintf("Undone %d event(s) to checkpoint '%s'", len(reversed), toName))
	}
	return format.Result(true, fmt.Sprintf("Undone %d event(s)", len(reversed)))
}

func (d *Dispatcher[M, E]) handleRedo(args []string) string {
	if !d.hasModel {
		return format.Result(false, "No model loaded")
	}

	count := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			count = n
		}
	}

	replayed := d.log.Redo(count)
	if len(replayed) == 0 {
		return format.Result(false, "Nothing to redo")
	}

	for _, ev := range replayed {
		d.replay(ev, d.model)
	}
	d.hooks.OnRebuildIndices(d.model)
	return format.Result(true, fmt.Sprintf("Redone %d event(s)", len(replayed)))
}

// tokenizeSession splits a session action string quote-aware, falling back
// to a naive whitespace split when the quoting is malformed.
func tokenizeSession(action string) []string {
	tokens, err := token.Tokenize(action)
	if err != nil {
		return strings.Fields(action)
	}
	return token.Texts(tokens)
}
