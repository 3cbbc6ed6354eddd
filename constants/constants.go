package constants

// Connection states negotiated by the handshake packet's next_state field.
const (
	Handshaking = 0
	Status      = 1
	Login       = 2
	Play        = 3
)

const (
	// MCProtocol is the protocol version sent in the handshake. Servers do
	// not validate it for status queries; 754 is 1.16.5.
	MCProtocol = 754

	// DefaultPort is the standard Minecraft server port.
	DefaultPort = 25565
)

// Packet ids used by the status flow.
const (
	PacketHandshake      = 0x00
	PacketStatusRequest  = 0x00
	PacketStatusResponse = 0x00
	PacketPing           = 0x01
	PacketPong           = 0x01
)

// PingPayload is the value the server must echo back in its pong packet.
const PingPayload int64 = 0x8008135
