package protocol

// Close codes sent when the server ends a session. The 4xxx range is
// reserved for applications by RFC 6455.
const (
	CloseNormal      = 1000
	CloseGoingAway   = 1001
	CloseAuthFailed  = 4001
	CloseNoCharacter = 4002
	CloseSuperseded  = 4003
	CloseJoinFailed  = 4004
)
