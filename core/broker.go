package core

import (
	"encoding/json"
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Broker encapsulates a NATS connection used as the change feed.
type Broker struct {
	Conn *nats.Conn
}

// NewBroker creates a new Broker connected to the provided URL.
func NewBroker(url string) (*Broker, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Broker{Conn: nc}, nil
}

// Publish marshals v as JSON and sends it on the provided subject.
func (b *Broker) Publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", subject, err)
	}
	return b.Conn.Publish(subject, data)
}

// Subscribe registers a callback for a specific subject.
func (b *Broker) Subscribe(subject string, cb func(data []byte)) (*nats.Subscription, error) {
	return b.Conn.Subscribe(subject, func(msg *nats.Msg) {
		cb(msg.Data)
	})
}

// Flush waits until all published messages have been processed by the server.
func (b *Broker) Flush() error {
	return b.Conn.Flush()
}

// Close gracefully closes the connection.
func (b *Broker) Close() {
	b.Conn.Close()
}

// StartEmbeddedServer runs an in-process NATS server so a single node is
// self-contained. Returns the server and its client URL.
func StartEmbeddedServer(port int) (*natsserver.Server, string, error) {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, "", err
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, "", fmt.Errorf("embedded NATS server did not become ready")
	}
	return srv, srv.ClientURL(), nil
}
