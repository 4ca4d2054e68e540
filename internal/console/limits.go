// Package console implements the line-bounded verb/ACK grammar of
// docs/SECURE9P.md §4.D: a byte-at-a-time line discipline, a lexer over
// the closed verb set, a token-bucket rate limiter, and ACK rendering.
// The lexer splits off the verb at the first whitespace run and hands the
// rest to one parse function per verb; it has no state-function loop and
// no quote handling.
package console

// Per-field length caps (§3). Values are chosen generously relative to
// the console's line-oriented use (interactive typing or small scripts),
// not tuned to any external limit.
const (
	MaxLineLen = 4096
	MaxRoleLen = 32
	MaxPathLen = 256
	MaxEchoLen = 2048
	MaxIDLen   = 64
	MaxJSONLen = 2048

	// MaxSpawnKeyLen and MaxSpawnValueLen bound each k=v pair of a spawn
	// argument list (§4.D); the key set itself stays open since worker
	// roles define their own config vocabulary (see DESIGN.md).
	MaxSpawnKeyLen   = 32
	MaxSpawnValueLen = 256
)
