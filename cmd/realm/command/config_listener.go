package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-realm/internal/auth"
	"github.com/pixil98/go-realm/internal/listener"
)

type ListenerConfig struct {
	Port           uint16   `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
	PingInterval   string   `json:"ping_interval"`
}

func (c *ListenerConfig) validate() error {
	el := errors.NewErrorList()

	if c.Port == 0 {
		el.Add(fmt.Errorf("listener.port must be set to a positive integer"))
	}
	_, err := parseDuration("listener.ping_interval", c.PingInterval, listener.DefaultPingInterval)
	el.Add(err)

	return el.Err()
}

func (c *ListenerConfig) buildListener(cm *listener.ConnectionManager, login *auth.LoginHandler, status listener.StatusReporter) (*listener.WebsocketListener, error) {
	ping, err := parseDuration("listener.ping_interval", c.PingInterval, listener.DefaultPingInterval)
	if err != nil {
		return nil, err
	}

	return listener.NewWebsocketListener(c.Port, cm,
		listener.WithLoginHandler(login),
		listener.WithStatus(status),
		listener.WithAllowedOrigins(c.AllowedOrigins),
		listener.WithPingInterval(ping),
	), nil
}
