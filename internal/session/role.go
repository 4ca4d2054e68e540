package session

import "strings"

// Role is the closed set of identities a session may attach as.
type Role int

const (
	RoleQueen Role = iota
	RoleWorkerHeartbeat
	RoleWorkerGpu
	RoleWorkerBus
	RoleWorkerLora
)

func (r Role) String() string {
	switch r {
	case RoleQueen:
		return "Queen"
	case RoleWorkerHeartbeat:
		return "WorkerHeartbeat"
	case RoleWorkerGpu:
		return "WorkerGpu"
	case RoleWorkerBus:
		return "WorkerBus"
	case RoleWorkerLora:
		return "WorkerLora"
	default:
		return "Unknown"
	}
}

// shortForm is the console grammar's lowercase token for each role.
func (r Role) shortForm() string {
	switch r {
	case RoleQueen:
		return "queen"
	case RoleWorkerHeartbeat:
		return "heartbeat"
	case RoleWorkerGpu:
		return "gpu"
	case RoleWorkerBus:
		return "bus"
	case RoleWorkerLora:
		return "lora"
	default:
		return ""
	}
}

// ParseRole maps a role token (accepted in either canonical label or short
// console form) to the closed role set. Malformed tokens yield ErrRole.
func ParseRole(token string) (Role, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "queen":
		return RoleQueen, nil
	case "workerheartbeat", "heartbeat":
		return RoleWorkerHeartbeat, nil
	case "workergpu", "gpu":
		return RoleWorkerGpu, nil
	case "workerbus", "bus":
		return RoleWorkerBus, nil
	case "workerlora", "lora":
		return RoleWorkerLora, nil
	default:
		return 0, ErrRole
	}
}
