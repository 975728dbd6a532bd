package constants

const (
	AppName   = "tba-chat-agent"
	StateFile = "agent_state.json"

	SchemaV1      = 1
	FilePerm      = 0o600
	DirectoryPerm = 0o700

	NativeAddr = "0x0000000000000000000000000000000000000000"

	// AAD for the encrypted agent state file (must match on decrypt).
	StateAAD = "tba-chat-agent:state:v1"

	// Relay handshake payload prefix, signed with the wallet key.
	RelayAuthPrefix = "tba-chat-agent:relay-auth:v1"

	ErrorPrefix = "❌ "
)
