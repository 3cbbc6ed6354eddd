// Package protocol implements the client side of the Minecraft server
// list ping flow: one handshake, one status exchange and one ping over
// a single TCP stream, with VarInt-prefixed packet framing.
package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/skyezerfox/mcstat/constants"
	"github.com/skyezerfox/mcstat/models"
)

// Session states. Transitions are one-directional; any error drops the
// session into stateClosed and no call succeeds afterwards.
const (
	stateConnected = iota
	stateHandshaken
	stateStatusReceived
	statePinged
	stateClosed
)

// Session drives the status flow over an established stream. Calls must
// follow Handshake, Status, Ping in order; there are no retries or
// renegotiation within a session.
type Session struct {
	rw    io.ReadWriter
	state int
}

// NewSession wraps an already-connected stream.
func NewSession(rw io.ReadWriter) *Session {
	return &Session{rw: rw, state: stateConnected}
}

func (s *Session) require(op string, want int) error {
	if s.state != want {
		was := s.state
		s.state = stateClosed
		return errf(op, "called out of order (session state %d)", was)
	}
	return nil
}

func (s *Session) fail(err error) error {
	s.state = stateClosed
	return err
}

// Handshake sends the handshake packet announcing a status query for
// host:port. The server does not respond to it.
func (s *Session) Handshake(host string, port uint16) error {
	if err := s.require("handshake", stateConnected); err != nil {
		return err
	}

	var buf bytes.Buffer
	WriteVarInt(&buf, constants.MCProtocol)
	WriteString(&buf, host)
	binary.Write(&buf, binary.BigEndian, port)
	WriteVarInt(&buf, constants.Status)

	if err := WriteFrame(s.rw, constants.PacketHandshake, buf.Bytes()); err != nil {
		return s.fail(err)
	}
	log.Debug().Str("host", host).Uint16("port", port).Int("version", constants.MCProtocol).Msg("handshake sent")
	s.state = stateHandshaken
	return nil
}

// Status sends the status request and decodes the server's JSON reply.
// A reply without players.online and players.max is a protocol error.
func (s *Session) Status() (*models.ServerStatus, error) {
	if err := s.require("status", stateHandshaken); err != nil {
		return nil, err
	}

	if err := WriteFrame(s.rw, constants.PacketStatusRequest, nil); err != nil {
		return nil, s.fail(err)
	}

	id, payload, err := ReadFrame(s.rw)
	if err != nil {
		return nil, s.fail(err)
	}
	log.Debug().Int32("id", id).Int("size", len(payload)).Msg("packet received")
	if id != constants.PacketStatusResponse {
		return nil, s.fail(errf("status", "unexpected packet id 0x%02X", id))
	}

	doc, err := ReadString(bytes.NewReader(payload))
	if err != nil {
		return nil, s.fail(err)
	}

	var status models.ServerStatus
	if err := json.Unmarshal([]byte(doc), &status); err != nil {
		return nil, s.fail(wrapf("status", err, "malformed status document"))
	}
	if status.Players == nil {
		return nil, s.fail(errf("status", "status document has no players object"))
	}
	if status.Players.Online == nil || status.Players.Max == nil {
		return nil, s.fail(errf("status", "status document missing players.online or players.max"))
	}

	s.state = stateStatusReceived
	return &status, nil
}

// Ping sends payload and verifies the server echoes the same 8 bytes.
// A mismatched echo returns ErrPingMismatch; the status obtained before
// it remains valid.
func (s *Session) Ping(payload int64) error {
	if err := s.require("ping", stateStatusReceived); err != nil {
		return err
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(payload))
	if err := WriteFrame(s.rw, constants.PacketPing, buf[:]); err != nil {
		return s.fail(err)
	}

	id, pong, err := ReadFrame(s.rw)
	if err != nil {
		return s.fail(err)
	}
	log.Debug().Int32("id", id).Int("size", len(pong)).Msg("packet received")
	if id != constants.PacketPong {
		return s.fail(errf("ping", "unexpected packet id 0x%02X", id))
	}
	if len(pong) != 8 {
		return s.fail(errf("ping", "pong payload is %d bytes, want 8", len(pong)))
	}
	if !bytes.Equal(pong, buf[:]) {
		s.state = statePinged
		return ErrPingMismatch
	}

	s.state = statePinged
	return nil
}
