package session

// State is the connection state of a Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// UserRecord describes one derived account.
type UserRecord struct {
	Index      int64  `json:"index"`
	Path       string `json:"path"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
	StatusCode string `json:"statusCode"`
}
