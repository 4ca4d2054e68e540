package session

import "strings"

// MaxTicketLen bounds the normalized ticket string.
const MaxTicketLen = 256

// NormalizeTicket trims a candidate ticket and enforces MaxTicketLen.
func NormalizeTicket(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if len(t) > MaxTicketLen {
		return "", detailed("InvalidLength", "ticket exceeds MAX_TICKET_LEN")
	}
	return t, nil
}

// TicketInventory resolves the expected token for a role, and whether a
// ticket is mandatory for that role. internal/manifest provides the
// compile-time implementation; tests supply fakes.
type TicketInventory interface {
	Lookup(role Role) (token string, required bool)
}

// StaticInventory is the simplest TicketInventory: a fixed map plus a set
// of roles that require a ticket.
type StaticInventory struct {
	Tokens   map[Role]string
	Required map[Role]bool
}

func (inv StaticInventory) Lookup(role Role) (string, bool) {
	return inv.Tokens[role], inv.Required[role]
}

// Authenticate runs the §4.B attach authentication sequence: normalize,
// then check against the static inventory. loopback marks a transport as
// local/in-process, which is the only condition under which an absent
// queen ticket is still admitted.
func Authenticate(role Role, rawTicket string, inv TicketInventory, loopback bool) error {
	ticket, err := NormalizeTicket(rawTicket)
	if err != nil {
		return err
	}

	expected, required := inv.Lookup(role)

	if ticket == "" {
		if !required && role == RoleQueen && loopback {
			return nil
		}
		return ErrExpectedToken
	}

	if !required && expected == "" {
		// queen ticket supplied despite no configured token: nothing to
		// validate against, so accept it rather than reject a caller that
		// is trying to be explicit.
		return nil
	}

	if ticket != expected {
		return ErrInvalidToken
	}
	return nil
}
