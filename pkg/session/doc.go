/*
Package session orchestrates safe concurrent access to live sessions.

Advance is a read-modify-write over a session's progress and conversation
log, so two concurrent turns for the same session must be serialized. The
Manager provides reference-counted per-session locks in process, and an
optional DistributedLocker for multi-replica deployments. Different
sessions never contend.
*/
package session
