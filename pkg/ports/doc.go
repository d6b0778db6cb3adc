/*
Package ports defines the driven ports (interfaces) for the opcmd command layer.

These interfaces decouple the core (parser, event log, session dispatcher,
serving façade) from the domain it operates on. The core treats the model as
an opaque handle and events as opaque payloads; everything it cannot do itself
goes through one of these contracts.

# Key Interfaces

  - Adapter: the full capability set a domain supplies (model lifecycle,
    operation dispatch, event reversal/replay).
  - SessionHooks: the subset the session dispatcher needs for new/open/save.
  - Snapshotter: optional batch-atomicity capability (opaque snapshot/restore).
*/
package ports
