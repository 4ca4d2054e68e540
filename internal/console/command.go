package console

import (
	"strconv"
	"strings"
	"unicode"
)

// Verb is the closed set of console commands (§3).
type Verb int

const (
	VerbHelp Verb = iota
	VerbAttach
	VerbTail
	VerbLog
	VerbPing
	VerbTest
	VerbLs
	VerbCat
	VerbEcho
	VerbSpawn
	VerbKill
	VerbQuit
)

func (v Verb) String() string {
	switch v {
	case VerbHelp:
		return "HELP"
	case VerbAttach:
		return "ATTACH"
	case VerbTail:
		return "TAIL"
	case VerbLog:
		return "LOG"
	case VerbPing:
		return "PING"
	case VerbTest:
		return "TEST"
	case VerbLs:
		return "LS"
	case VerbCat:
		return "CAT"
	case VerbEcho:
		return "ECHO"
	case VerbSpawn:
		return "SPAWN"
	case VerbKill:
		return "KILL"
	case VerbQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// AttachArgs carries attach's optional ticket.
type AttachArgs struct {
	Role   string
	Ticket string
}

// PathArgs carries a single path argument (tail/ls/cat).
type PathArgs struct {
	Path string
}

// EchoArgs carries echo's text and destination path.
type EchoArgs struct {
	Path string
	Text string
}

// SpawnArgs carries spawn's role and key=value arguments.
type SpawnArgs struct {
	Role string
	Args map[string]string
}

// KillArgs carries kill's target worker id.
type KillArgs struct {
	WorkerID string
}

// TestArgs carries test's flags, all optional.
type TestArgs struct {
	Mode      string // "quick" or "full"; "" if unset
	JSON      bool
	TimeoutS  int
	HasTimeout bool
	Mutate    bool
}

// Command is a tagged union over the parsed verb and its arguments. Go has
// no sum type, so Verb discriminates which pointer field is populated;
// Help/Log/Ping/Quit carry no arguments at all.
type Command struct {
	Verb Verb

	Attach *AttachArgs
	Tail   *PathArgs
	Ls     *PathArgs
	Cat    *PathArgs
	Echo   *EchoArgs
	Spawn  *SpawnArgs
	Kill   *KillArgs
	Test   *TestArgs
}

// verbNames is the closed verb set in lowercase, the order `help` prints
// them in and the candidate pool Suggest completes against.
var verbNames = []string{
	"help", "attach", "tail", "log", "ping", "test",
	"ls", "cat", "echo", "spawn", "kill", "quit",
}

// Verbs returns the closed verb set, lowercase, in grammar-declaration order.
func Verbs() []string {
	out := make([]string, len(verbNames))
	copy(out, verbNames)
	return out
}

// Suggest completes line's first word against the closed verb set, the
// local equivalent of miniclient.Conn.Suggest (which instead round-trips
// a "Suggest" request to a running minimega instance): here the full
// candidate list is known statically, so completion never leaves the
// process. Only the first word is completed; once a space appears the
// verb is already fixed and there is nothing left to suggest.
func Suggest(line string) []string {
	if strings.ContainsAny(line, " \t") {
		return nil
	}
	var out []string
	for _, v := range verbNames {
		if strings.HasPrefix(v, line) {
			out = append(out, v)
		}
	}
	return out
}

func splitVerb(line string) (verb, rest string) {
	trimmed := strings.TrimSpace(line)
	idx := strings.IndexFunc(trimmed, unicode.IsSpace)
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[:idx], strings.TrimSpace(trimmed[idx:])
}

// Parse lexes and classifies one console line into a Command. Unknown
// verbs fail with InvalidVerb; malformed arguments fail with
// MalformedArg, always naming the verb that rejected them.
func Parse(line string) (*Command, error) {
	verb, rest := splitVerb(line)
	if verb == "" {
		return nil, errInvalidVerb("")
	}
	verbLower := strings.ToLower(verb)

	switch verbLower {
	case "help":
		return &Command{Verb: VerbHelp}, nil
	case "log":
		return &Command{Verb: VerbLog}, nil
	case "ping":
		return &Command{Verb: VerbPing}, nil
	case "quit":
		return &Command{Verb: VerbQuit}, nil
	case "attach":
		return parseAttach(rest)
	case "tail":
		p, err := parsePath("TAIL", rest)
		if err != nil {
			return nil, err
		}
		return &Command{Verb: VerbTail, Tail: p}, nil
	case "ls":
		p, err := parsePath("LS", rest)
		if err != nil {
			return nil, err
		}
		return &Command{Verb: VerbLs, Ls: p}, nil
	case "cat":
		p, err := parsePath("CAT", rest)
		if err != nil {
			return nil, err
		}
		return &Command{Verb: VerbCat, Cat: p}, nil
	case "echo":
		e, err := parseEcho(rest)
		if err != nil {
			return nil, err
		}
		return &Command{Verb: VerbEcho, Echo: e}, nil
	case "spawn":
		s, err := parseSpawn(rest)
		if err != nil {
			return nil, err
		}
		return &Command{Verb: VerbSpawn, Spawn: s}, nil
	case "kill":
		k, err := parseKill(rest)
		if err != nil {
			return nil, err
		}
		return &Command{Verb: VerbKill, Kill: k}, nil
	case "test":
		t, err := parseTest(rest)
		if err != nil {
			return nil, err
		}
		return &Command{Verb: VerbTest, Test: t}, nil
	default:
		return nil, errInvalidVerb(verbLower)
	}
}

func parseAttach(rest string) (*Command, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, errMalformed("ATTACH", "missing role")
	}
	role := fields[0]
	if len(role) > MaxRoleLen {
		return nil, errMalformed("ATTACH", "role exceeds MAX_ROLE_LEN")
	}
	var ticket string
	if len(fields) > 1 {
		ticket = fields[1]
	}
	return &Command{Verb: VerbAttach, Attach: &AttachArgs{Role: role, Ticket: ticket}}, nil
}

func parsePath(verb, rest string) (*PathArgs, error) {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return nil, errMalformed(verb, "expected exactly one path argument")
	}
	path := fields[0]
	if len(path) > MaxPathLen {
		return nil, errMalformed(verb, "path exceeds MAX_PATH_LEN")
	}
	return &PathArgs{Path: path}, nil
}

func parseEcho(rest string) (*EchoArgs, error) {
	idx := strings.LastIndex(rest, ">")
	if idx < 0 {
		return nil, errMalformed("ECHO", "missing '>' separator")
	}
	text := strings.TrimSpace(rest[:idx])
	path := strings.TrimSpace(rest[idx+1:])
	if path == "" {
		return nil, errMalformed("ECHO", "missing destination path")
	}
	if len(path) > MaxPathLen {
		return nil, errMalformed("ECHO", "path exceeds MAX_PATH_LEN")
	}
	if len(text) > MaxEchoLen {
		return nil, errMalformed("ECHO", "text exceeds MAX_ECHO_LEN")
	}
	return &EchoArgs{Path: path, Text: text}, nil
}

func parseSpawn(rest string) (*SpawnArgs, error) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, errMalformed("SPAWN", "missing role")
	}
	role := fields[0]
	if len(role) > MaxRoleLen {
		return nil, errMalformed("SPAWN", "role exceeds MAX_ROLE_LEN")
	}

	args := make(map[string]string)
	for _, kv := range fields[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errMalformed("SPAWN", "expected k=v argument, got "+kv)
		}
		if len(k) == 0 || len(k) > MaxSpawnKeyLen {
			return nil, errMalformed("SPAWN", "key exceeds MAX_SPAWN_KEY_LEN: "+k)
		}
		if len(v) > MaxSpawnValueLen {
			return nil, errMalformed("SPAWN", "value exceeds MAX_SPAWN_VALUE_LEN for key "+k)
		}
		args[k] = v
	}
	return &SpawnArgs{Role: role, Args: args}, nil
}

func parseKill(rest string) (*KillArgs, error) {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return nil, errMalformed("KILL", "expected exactly one worker id")
	}
	id := fields[0]
	if len(id) > MaxIDLen {
		return nil, errMalformed("KILL", "worker id exceeds MAX_ID_LEN")
	}
	return &KillArgs{WorkerID: id}, nil
}

func parseTest(rest string) (*TestArgs, error) {
	t := &TestArgs{Mutate: true}
	fields := strings.Fields(rest)

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "--mode":
			if i+1 >= len(fields) {
				return nil, errMalformed("TEST", "--mode requires a value")
			}
			i++
			if fields[i] != "quick" && fields[i] != "full" {
				return nil, errMalformed("TEST", "--mode must be quick or full")
			}
			t.Mode = fields[i]
		case "--json":
			t.JSON = true
		case "--timeout":
			if i+1 >= len(fields) {
				return nil, errMalformed("TEST", "--timeout requires a value")
			}
			i++
			n, err := strconv.Atoi(fields[i])
			if err != nil || n < 0 {
				return nil, errMalformed("TEST", "--timeout must be a non-negative integer")
			}
			t.TimeoutS = n
			t.HasTimeout = true
		case "--no-mutate":
			t.Mutate = false
		default:
			return nil, errMalformed("TEST", "unknown flag "+fields[i])
		}
	}
	return t, nil
}
