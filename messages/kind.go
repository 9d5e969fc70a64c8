package messages

type Kind int

const (
	CHOKE Kind = iota
	UNCHOKE
	INTERESTED
	NOT_INTERESTED
	HAVE
	BITFIELD
	REQUEST
	PIECE
	CANCEL

	// Not message ids on the wire. HANDSHAKE is recognised by its first
	// byte and KEEP_ALIVE by its zero length.
	HANDSHAKE Kind = 100 + iota
	KEEP_ALIVE
	UNKNOWN
)

func (k Kind) String() string {
	switch k {
	case CHOKE:
		return "choke"
	case UNCHOKE:
		return "unchoke"
	case INTERESTED:
		return "interested"
	case NOT_INTERESTED:
		return "not interested"
	case HAVE:
		return "have"
	case BITFIELD:
		return "bitfield"
	case REQUEST:
		return "request"
	case PIECE:
		return "piece"
	case CANCEL:
		return "cancel"
	case HANDSHAKE:
		return "handshake"
	case KEEP_ALIVE:
		return "keep-alive"
	default:
		return "unknown"
	}
}
