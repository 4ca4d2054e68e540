package console

import "strings"

// AckLine is a rendered/parsed console acknowledgement: `"OK"|"ERR" SP
// VERB [SP detail]`.
type AckLine struct {
	Status string // "OK" or "ERR"
	Verb   string
	Detail string
}

// RenderAck formats a as one ACK line. Truncated is returned if buf is
// non-nil and too small to hold the rendered line; callers must surface
// that as a protocol error rather than silently dropping bytes.
func RenderAck(a AckLine, buf []byte) ([]byte, error) {
	var b strings.Builder
	b.WriteString(a.Status)
	b.WriteByte(' ')
	b.WriteString(a.Verb)
	if a.Detail != "" {
		b.WriteByte(' ')
		b.WriteString(a.Detail)
	}
	rendered := b.String()

	if buf != nil && len(buf) < len(rendered) {
		return nil, &Error{Kind: "Truncated", Verb: a.Verb}
	}
	return []byte(rendered), nil
}

// ParseAck parses one console line against the ack grammar. Lines that do
// not match (wrong status token, missing verb) are not an error: callers
// use ok=false to treat the line as plain Text.
func ParseAck(line string) (AckLine, bool) {
	trimmed := strings.TrimSpace(line)
	status, rest := splitVerb(trimmed)
	if status != "OK" && status != "ERR" {
		return AckLine{}, false
	}
	verb, detail := splitVerb(rest)
	if verb == "" {
		return AckLine{}, false
	}
	return AckLine{Status: status, Verb: verb, Detail: detail}, true
}

// End is the literal stream terminator for multi-line responses.
const End = "END"
