package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// Wire messages are "<kind>\x00<json>"; the kind prefix lets NNG
// subscribers filter by topic.
const topicSeparator = 0

// NNGBridge forwards events from a PubSub subscription to an NNG pub socket.
type NNGBridge struct {
	sock mangos.Socket
	addr string
}

// NewNNGBridge listens on addr (for example "tcp://127.0.0.1:40899").
func NewNNGBridge(addr string) (*NNGBridge, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("nng pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("nng listen %s: %w", addr, err)
	}
	return &NNGBridge{sock: sock, addr: addr}, nil
}

// Addr returns the listen address.
func (b *NNGBridge) Addr() string { return b.addr }

// Forward sends every event from the subscription until it closes or ctx
// is done.
func (b *NNGBridge) Forward(ctx context.Context, s *Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.Channel():
			if !ok {
				return nil
			}
			if err := b.Send(ev); err != nil {
				return err
			}
		}
	}
}

// Send encodes and publishes one event.
func (b *NNGBridge) Send(ev Event) error {
	msg, err := EncodeMessage(ev)
	if err != nil {
		return err
	}
	return b.sock.Send(msg)
}

// Close closes the socket.
func (b *NNGBridge) Close() error {
	return b.sock.Close()
}

// EncodeMessage renders ev in the wire format.
func EncodeMessage(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	msg := make([]byte, 0, len(ev.Kind)+1+len(body))
	msg = append(msg, ev.Kind...)
	msg = append(msg, topicSeparator)
	return append(msg, body...), nil
}

// DecodeMessage parses the wire format.
func DecodeMessage(msg []byte) (Event, error) {
	var ev Event
	_, body, ok := bytes.Cut(msg, []byte{topicSeparator})
	if !ok {
		return ev, errors.New("decode event: missing topic separator")
	}
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// NNGWatcher receives events from a remote NNGBridge.
type NNGWatcher struct {
	sock mangos.Socket
}

// DialNNGWatcher connects to addr and subscribes to the given kinds; no
// kinds means every event.
func DialNNGWatcher(addr string, kinds ...Kind) (*NNGWatcher, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("nng sub socket: %w", err)
	}
	if len(kinds) == 0 {
		err = sock.SetOption(mangos.OptionSubscribe, []byte{})
	}
	for _, k := range kinds {
		if err != nil {
			break
		}
		err = sock.SetOption(mangos.OptionSubscribe, append([]byte(k), topicSeparator))
	}
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("nng subscribe: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("nng dial %s: %w", addr, err)
	}
	return &NNGWatcher{sock: sock}, nil
}

// Recv waits up to timeout for the next event. A zero timeout blocks.
func (w *NNGWatcher) Recv(timeout time.Duration) (Event, error) {
	if err := w.sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
		return Event{}, err
	}
	msg, err := w.sock.Recv()
	if err != nil {
		return Event{}, err
	}
	return DecodeMessage(msg)
}

// Close closes the socket.
func (w *NNGWatcher) Close() error {
	return w.sock.Close()
}
