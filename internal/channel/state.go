package channel

// State is the connection state of the sensor channel.
type State string

const (
	// StateDisconnected is the initial state and the state after a clean
	// transport drop.
	StateDisconnected State = "disconnected"
	// StateConnecting covers dialing, the MQTT handshake, and the topic
	// subscription.
	StateConnecting State = "connecting"
	// StateConnected means the subscription is live and messages flow.
	StateConnected State = "connected"
	// StateError means the last connection attempt failed before the
	// subscription went live; the channel re-enters StateConnecting after
	// a backoff delay. A drop of an established session is
	// StateDisconnected, not StateError.
	StateError State = "error"
)
