/*
Package opcmd is a command layer for agent-driven tools. It turns compact
op strings like

	add svc AuthService theme:blue
	connect AuthService -> UserDB label:queries

into structured operations, and gives any domain model an event-sourced
session with undo, redo and named checkpoints.

# Concept

An op string is a verb followed by whitespace-separated tokens. The token
package splits the string quote-aware, the op package classifies each token
as a positional argument, a key:value parameter or an @selector, and the
domain adapter decides what the operation means. Every mutation is recorded
as a reversible event in a cursor-based log, so history is a property of the
session rather than of the domain.

The seams are generic: plug in any model type M and event type E by
implementing ports.Adapter[M, E]. The server package then exposes the domain
as a set of MCP tools over stdio or SSE, and pkg/adapters/diagram ships a
small reference domain.

# Usage

Parse an op string and inspect its parts:

	parsed, err := op.Parse(`connect AuthService -> UserDB label:queries`)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(parsed.Verb)        // connect
	fmt.Println(parsed.Positionals) // [AuthService -> UserDB]
	fmt.Println(parsed.Params)      // map[label:queries]

Or wire a full session over an adapter:

	srv := server.New[*diagram.Diagram, *diagram.Event](
		"diagram", opcmd.Version, diagram.Adapter{}, diagram.Verbs(),
	)
	srv.ExecuteSession(`new "Payment Flow"`)
	srv.ExecuteOps([]string{"add svc AuthService"})
*/
package opcmd

// Version is the library and CLI release version.
const Version = "0.1.0"
