package ports

// SessionHooks is the contract the session dispatcher routes lifecycle
// commands through. It is a narrow view of Adapter: the dispatcher only
// creates, loads and saves models, it never interprets them.
//
// Hook errors are caught at the dispatcher boundary and converted into
// failure result lines; they never propagate to the caller.
type SessionHooks[M any] interface {
	// OnNew creates a fresh model from session params (title included).
	OnNew(params map[string]string) (M, error)

	// OnOpen deserializes a model from the given file path.
	OnOpen(path string) (M, error)

	// OnSave serializes the model to the given file path.
	OnSave(model M, path string) error

	// OnRebuildIndices rebuilds derived structures after undo/redo.
	OnRebuildIndices(model M)

	// Digest returns a human-readable summary of the model state.
	Digest(model M) string
}
