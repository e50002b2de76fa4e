/*
Package ports defines the driven ports (interfaces) for the Rehearse engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various storage backends and locking
strategies.

# Key Interfaces

  - FlowStore: Persists flow documents and enforces the exclusive-publish
    invariant atomically.
  - SessionStore: Persists and loads live session state.
  - DistributedLocker: Provides distributed locking for concurrent
    session access across replicas.
*/
package ports
