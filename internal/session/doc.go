// Package session implements the Secure9P attach protocol, the per-session
// tag window, and the short-write retry policy. It generalizes
// ron.Server's client table (internal/ron) from a flat map of
// UUID-keyed VM clients to a Table of SessionId-keyed, explicitly
// state-machined sessions.
package session
