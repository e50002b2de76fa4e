/*
Package domain contains the core domain models for the Rehearse engine.

It defines the fundamental entities of a training flow and its live
sessions. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: Represents one conversational step in the flow graph (content,
    media, question, decision, assessment).
  - Edge: A directed, conditionally-satisfied transition between nodes.
  - Flow: A versioned, trainer-owned document holding the node/edge graph.
  - Session: The runtime snapshot of one user's walk through a flow
    (current node, progress counters, conversation log).
*/
package domain
