// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// QoS levels.
const (
	AtMostOnce  byte = 0
	AtLeastOnce byte = 1
	ExactlyOnce byte = 2
)

const (
	defaultKeepAlive      = 60 * time.Second
	defaultConnectTimeout = 30 * time.Second

	// disconnectQuiesce is how long Disconnect lets in-flight work
	// finish, in milliseconds.
	disconnectQuiesce = 250

	unsubscribeTimeout = 5 * time.Second
)

// ErrNotConnected is returned by Publish before Start or after Stop.
var ErrNotConnected = errors.New("mqtt: client not connected")

// Config holds the parameters for NewClient.
type Config struct {
	// Host and Port locate the broker. Host is required.
	Host string
	Port int

	// Username and Password are sent when Username is non-empty.
	Username string
	Password string

	// ClientID defaults to "codingcrew_" plus eight random hex digits.
	// Brokers disconnect the older of two sessions sharing an id.
	ClientID string

	// KeepAlive defaults to 60s; ConnectTimeout to 30s.
	KeepAlive      time.Duration
	ConnectTimeout time.Duration

	// AutoReconnect lets Paho reconnect after a lost connection.
	// Subscriptions are restored by the on-connect hook.
	AutoReconnect bool

	// QoS applies to publishes and subscriptions. lib/config sets it
	// to ExactlyOnce.
	QoS byte

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a Paho-backed transport. It holds one connection and one
// message handler.
type Client struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	client  paho.Client
	handler func(topic string, payload []byte)
	topics  []string

	// subscribed is set once Start's own subscribe succeeded; from then
	// on every (re)connect resubscribes.
	subscribed atomic.Bool
}

// NewClient validates config and returns an unconnected Client.
func NewClient(config Config) (*Client, error) {
	if config.Host == "" {
		return nil, errors.New("mqtt: broker host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return nil, fmt.Errorf("mqtt: invalid broker port %d", config.Port)
	}
	if config.QoS > ExactlyOnce {
		return nil, fmt.Errorf("mqtt: invalid QoS %d", config.QoS)
	}
	if config.ClientID == "" {
		config.ClientID = NewClientID("codingcrew")
	}
	if config.KeepAlive <= 0 {
		config.KeepAlive = defaultKeepAlive
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		config: config,
		logger: config.Logger.With("client_id", config.ClientID),
	}, nil
}

// NewClientID returns prefix + "_" + eight random hex digits.
func NewClientID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

// ClientID returns the id presented to the broker.
func (c *Client) ClientID() string { return c.config.ClientID }

// BrokerURL returns the tcp:// URL of the configured broker.
func (c *Client) BrokerURL() string {
	return "tcp://" + net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}

// Start connects and subscribes to topics, delivering every message to
// handler. It returns once the broker has acknowledged the
// subscriptions, or on the first failure.
func (c *Client) Start(ctx context.Context, handler func(topic string, payload []byte), topics ...string) error {
	if handler == nil {
		return errors.New("mqtt: handler is required")
	}
	for _, topic := range topics {
		if err := ValidateFilter(topic); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.client != nil {
		c.mu.Unlock()
		return errors.New("mqtt: client already started")
	}
	c.handler = handler
	c.topics = append([]string(nil), topics...)

	options := paho.NewClientOptions().
		AddBroker(c.BrokerURL()).
		SetClientID(c.config.ClientID).
		SetCleanSession(true).
		SetKeepAlive(c.config.KeepAlive).
		SetConnectTimeout(c.config.ConnectTimeout).
		SetAutoReconnect(c.config.AutoReconnect).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetReconnectingHandler(c.onReconnecting)
	if c.config.Username != "" {
		options.SetUsername(c.config.Username)
		options.SetPassword(c.config.Password)
	}
	client := paho.NewClient(options)
	c.client = client
	c.mu.Unlock()

	c.logger.Info("connecting to MQTT broker", "broker", c.BrokerURL())
	if err := waitToken(ctx, client.Connect()); err != nil {
		c.reset()
		return fmt.Errorf("mqtt: connecting to %s: %w", c.BrokerURL(), err)
	}

	if len(topics) > 0 {
		if err := c.subscribe(ctx, client); err != nil {
			client.Disconnect(disconnectQuiesce)
			c.reset()
			return err
		}
	}
	c.subscribed.Store(true)
	c.logger.Info("connected to MQTT broker", "broker", c.BrokerURL(), "topics", topics)
	return nil
}

// Publish sends payload on topic and waits for the broker's
// acknowledgement (PUBCOMP at QoS 2) or ctx.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	client := c.current()
	if client == nil {
		return ErrNotConnected
	}
	if err := waitToken(ctx, client.Publish(topic, c.config.QoS, false, payload)); err != nil {
		return fmt.Errorf("mqtt: publishing to %s: %w", topic, err)
	}
	return nil
}

// Stop unsubscribes and disconnects. Stopping an unstarted client is a
// no-op.
func (c *Client) Stop() error {
	c.mu.Lock()
	client := c.client
	topics := c.topics
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	c.subscribed.Store(false)

	var unsubscribeErr error
	if client.IsConnected() && len(topics) > 0 {
		token := client.Unsubscribe(topics...)
		if !token.WaitTimeout(unsubscribeTimeout) {
			unsubscribeErr = fmt.Errorf("mqtt: unsubscribe timed out after %s", unsubscribeTimeout)
		} else if err := token.Error(); err != nil {
			unsubscribeErr = fmt.Errorf("mqtt: unsubscribing: %w", err)
		}
	}
	client.Disconnect(disconnectQuiesce)
	c.reset()
	c.logger.Info("disconnected from MQTT broker", "broker", c.BrokerURL())
	return unsubscribeErr
}

func (c *Client) current() paho.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

func (c *Client) reset() {
	c.mu.Lock()
	c.client = nil
	c.mu.Unlock()
}

func (c *Client) subscribe(ctx context.Context, client paho.Client) error {
	c.mu.Lock()
	filters := make(map[string]byte, len(c.topics))
	for _, topic := range c.topics {
		filters[topic] = c.config.QoS
	}
	c.mu.Unlock()

	if err := waitToken(ctx, client.SubscribeMultiple(filters, c.onMessage)); err != nil {
		return fmt.Errorf("mqtt: subscribing to %d topics: %w", len(filters), err)
	}
	return nil
}

func (c *Client) onMessage(_ paho.Client, message paho.Message) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	handler(message.Topic(), message.Payload())
}

// onConnect runs on Paho's goroutine after every successful connect.
// The first connect is handled by Start; later ones are reconnects on a
// clean session, which has lost its subscriptions.
func (c *Client) onConnect(client paho.Client) {
	if !c.subscribed.Load() {
		return
	}
	c.logger.Info("reconnected to MQTT broker; resubscribing")
	ctx, cancel := context.WithTimeout(context.Background(), c.config.ConnectTimeout)
	defer cancel()
	if err := c.subscribe(ctx, client); err != nil {
		c.logger.Error("resubscribe failed", "error", err)
	}
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.logger.Warn("MQTT connection lost", "error", err, "auto_reconnect", c.config.AutoReconnect)
}

func (c *Client) onReconnecting(_ paho.Client, _ *paho.ClientOptions) {
	c.logger.Info("reconnecting to MQTT broker", "broker", c.BrokerURL())
}

func waitToken(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
