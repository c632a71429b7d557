// Package session provides the session registry.
//
// The session package maps opaque session identifiers to per-session state:
// a monotonically increasing execution counter and an exclusive lock that
// serializes executions within one session. The registry is bounded: expired
// sessions are evicted on registration, and when the capacity limit is still
// exceeded the least-recently-active session is dropped.
//
// Sessions are never persisted; the registry's lifetime is the process's.
package session
