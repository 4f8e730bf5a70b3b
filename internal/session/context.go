// Package session owns user session lifecycle and chat history persistence,
// and supplies the read-only per-request context the agent pipeline consumes.
package session

// Context is the immutable per-request view of session state the agent core
// reads. The core never writes through this type; lifecycle and mutation are
// handled by the Store.
type Context struct {
	Credential string // opaque GitHub token
	Repository string // "owner/name"
}
