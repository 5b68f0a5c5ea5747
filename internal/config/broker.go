package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Address returns the broker URI. Without an explicit URL it is built from the
// address fields, escaping the credentials and vhost.
func (b BrokerConfig) Address() string {
	if b.URL != "" {
		return b.URL
	}

	userinfo := ""
	if b.User != "" {
		userinfo = url.UserPassword(b.User, b.Password).String() + "@"
	}

	// The default vhost is spelled as an empty path.
	vhost := ""
	if b.Vhost != "" && b.Vhost != "/" {
		vhost = url.PathEscape(b.Vhost)
	}

	return fmt.Sprintf(
		"amqp://%s%s/%s",
		userinfo,
		net.JoinHostPort(b.Host, strconv.Itoa(b.Port)),
		vhost,
	)
}

// Options returns the connection options handed to every dial. With an
// explicit URL the vhost is left empty so the URL path selects it.
func (b BrokerConfig) Options() amqp.Config {
	props := amqp.NewConnectionProperties()
	if b.ConnectionName != "" {
		props.SetClientConnectionName(b.ConnectionName)
	}

	vhost := b.Vhost
	if b.URL != "" {
		vhost = ""
	}

	return amqp.Config{
		Vhost:      vhost,
		Heartbeat:  b.Heartbeat,
		ChannelMax: b.ChannelMax,
		FrameSize:  b.FrameSize,
		Locale:     b.Locale,
		Properties: props,
	}
}
