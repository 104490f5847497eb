// Package channel maintains a resilient MQTT subscription to the sensor
// feed and exposes the most recent temperature plus the connection state as
// a point-in-time snapshot.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
)

// ErrAlreadyStarted is returned by Start when the channel is already running.
var ErrAlreadyStarted = errors.New("channel: already started")

const defaultKeepAlive = 30 // seconds

// Snapshot is a point-in-time view of the channel. Reading it never blocks
// message delivery.
type Snapshot struct {
	// Temperature is the most recent decoded reading. Only meaningful when
	// HasReading is true.
	Temperature float64 `json:"temperature"`
	// HasReading reports whether any reading has been decoded since Start.
	HasReading bool `json:"has_reading"`
	// Updated is when the last reading was decoded.
	Updated time.Time `json:"updated"`
	// State is the current connection state.
	State State `json:"state"`
	// LastError describes the most recent connection or decode failure.
	LastError string `json:"last_error,omitempty"`
}

// Config configures a Channel.
type Config struct {
	// BrokerAddr is the host:port of the MQTT broker.
	BrokerAddr string
	// Topic is the sensor topic to subscribe to.
	Topic string
	// ClientID identifies this subscriber to the broker. Randomized when
	// empty so restarts never collide with a lingering session.
	ClientID string
	// KeepAlive is the MQTT keep-alive interval in seconds.
	KeepAlive uint16
	// MinBackoff and MaxBackoff bound the reconnect delay.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Channel is a single-subscription MQTT consumer with automatic reconnect.
// The zero value is not usable; construct with New.
type Channel struct {
	cfg     Config
	backoff expBackoff

	started atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	mu     sync.Mutex
	snap   Snapshot
	frozen bool
	notify chan struct{}
}

// New returns an unstarted Channel for the given broker and topic.
func New(cfg Config) *Channel {
	if cfg.ClientID == "" {
		cfg.ClientID = "tmon-" + uuid.NewString()[:8]
	}
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	return &Channel{
		cfg:     cfg,
		backoff: expBackoff{Min: cfg.MinBackoff, Max: cfg.MaxBackoff},
		done:    make(chan struct{}),
		notify:  make(chan struct{}, 1),
		snap:    Snapshot{State: StateDisconnected},
	}
}

// Start launches the connect/subscribe loop. It returns immediately; the
// connection is established in the background and progress is visible
// through Snapshot and Updates.
func (c *Channel) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(runCtx)
	return nil
}

// Stop tears the subscription down and waits for the loop to exit. After
// Stop returns no further snapshot or notification updates are observable.
// Stop is idempotent.
func (c *Channel) Stop() {
	if !c.started.Load() || c.cancel == nil {
		return
	}
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
	c.cancel()
	<-c.done
}

// Snapshot returns the current view of the channel.
func (c *Channel) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Updates returns a channel that receives a notification after the snapshot
// changes. Notifications coalesce: a slow reader sees at least one signal
// for any burst of updates, then reads the latest state via Snapshot.
func (c *Channel) Updates() <-chan struct{} {
	return c.notify
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	attempt := uint64(0)
	for {
		c.setState(StateConnecting, nil)

		established, err := c.connectAndListen(ctx)
		if ctx.Err() != nil {
			return
		}
		if established {
			// A dropped live session is a disconnect, not a failed
			// attempt; retry timing starts over.
			attempt = 0
			c.setState(StateDisconnected, err)
			log.Printf("channel: connection dropped: %v", err)
		} else {
			c.setState(StateError, err)
			log.Printf("channel: connection attempt failed: %v", err)
		}

		select {
		case <-time.After(c.backoff.interval(attempt)):
		case <-ctx.Done():
			return
		}
		attempt++
	}
}

// connectAndListen runs one full connection lifecycle: dial, CONNECT,
// SUBSCRIBE, then block until the session dies or ctx is canceled.
// established reports whether the subscription went live before the session
// ended, so the caller can tell a dropped session from a failed attempt.
// The network connection is released on every exit path.
func (c *Channel) connectAndListen(ctx context.Context) (established bool, err error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.cfg.BrokerAddr)
	if err != nil {
		return false, err
	}

	// Buffered so paho's callbacks never block if the session dies twice.
	sessionErr := make(chan error, 1)
	fatal := func(err error) {
		select {
		case sessionErr <- err:
		default:
		}
	}

	cli := paho.NewClient(paho.ClientConfig{
		Conn:          conn,
		ClientID:      c.cfg.ClientID,
		OnClientError: fatal,
		OnServerDisconnect: func(d *paho.Disconnect) {
			fatal(fmt.Errorf("server disconnect: reason code %d", d.ReasonCode))
		},
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				c.consume(pr.Packet)
				return true, nil
			},
		},
	})

	connack, err := cli.Connect(ctx, &paho.Connect{
		ClientID:   c.cfg.ClientID,
		KeepAlive:  c.cfg.KeepAlive,
		CleanStart: true,
	})
	if err != nil {
		_ = conn.Close()
		return false, err
	}
	if connack.ReasonCode >= 0x80 {
		_ = conn.Close()
		return false, fmt.Errorf("connect rejected: reason code %d", connack.ReasonCode)
	}
	defer func() {
		_ = cli.Disconnect(&paho.Disconnect{ReasonCode: 0})
	}()

	if _, err := cli.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: c.cfg.Topic, QoS: 0},
		},
	}); err != nil {
		return false, err
	}
	c.setState(StateConnected, nil)

	select {
	case err := <-sessionErr:
		return true, err
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// consume decodes one sensor message. Payloads are bare decimal strings;
// anything else is recorded as the last error without disturbing the
// connection state or the last good reading.
func (c *Channel) consume(p *paho.Publish) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(p.Payload)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		c.mutate(func(s *Snapshot) {
			s.LastError = fmt.Sprintf("malformed reading %q", p.Payload)
		})
		return
	}
	c.mutate(func(s *Snapshot) {
		s.Temperature = v
		s.HasReading = true
		s.Updated = time.Now().UTC()
		s.LastError = ""
	})
}

func (c *Channel) setState(state State, cause error) {
	c.mutate(func(s *Snapshot) {
		s.State = state
		if cause != nil {
			s.LastError = cause.Error()
		}
	})
}

// mutate applies fn to the snapshot and signals Updates, unless Stop has
// already frozen the channel.
func (c *Channel) mutate(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return
	}
	fn(&c.snap)
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
