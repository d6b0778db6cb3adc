/*
Package session implements the session lifecycle dispatcher.

It routes the six lifecycle commands (new, open, save, checkpoint, undo,
redo) to domain-supplied hooks, owning the event log and the current model
handle along the way. Checkpoint, undo and redo are handled internally
against the log; model creation, serialization and event reversal/replay are
delegated.

A Dispatcher is owned by exactly one caller at a time. Hosting applications
that serve multiple clients create one Dispatcher per logical connection;
sharing one across concurrent callers is unsupported.
*/
package session
