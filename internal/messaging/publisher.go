package messaging

// SessionSubject is the subject a connected session listens on.
func SessionSubject(sessionId string) string {
	return "session." + sessionId
}

// NatsPublisher publishes messages to individual session NATS subjects.
type NatsPublisher struct {
	server *NatsServer
}

// NewNatsPublisher wraps a NatsServer for per-session message delivery.
func NewNatsPublisher(server *NatsServer) *NatsPublisher {
	return &NatsPublisher{server: server}
}

func (p *NatsPublisher) Publish(sessionId string, data []byte) error {
	return p.server.Publish(SessionSubject(sessionId), data)
}

// SubscribeSession delivers every message published for sessionId to
// handler.
func (p *NatsPublisher) SubscribeSession(sessionId string, handler func(data []byte)) (func(), error) {
	return p.server.Subscribe(SessionSubject(sessionId), handler)
}
