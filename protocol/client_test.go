package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/skyezerfox/mcstat/constants"
)

// script is the behavior of one fake server connection.
type script struct {
	statusJSON string
	pongDelta  int64 // added to the echoed ping payload
	statusID   int32 // packet id for the status response, default 0x00
}

// serve runs the server side of a status flow over conn, recording the
// handshake fields it saw.
func serve(t *testing.T, conn net.Conn, sc script) {
	t.Helper()

	id, payload, err := ReadFrame(conn)
	if err != nil {
		t.Errorf("server: read handshake: %v", err)
		return
	}
	if id != constants.PacketHandshake {
		t.Errorf("server: handshake packet id = 0x%02X, want 0x00", id)
	}
	r := bytes.NewReader(payload)
	if _, _, err := ReadVarInt(r); err != nil {
		t.Errorf("server: handshake protocol version: %v", err)
	}
	host, err := ReadString(r)
	if err != nil {
		t.Errorf("server: handshake host: %v", err)
	}
	if host != "play.example.com" {
		t.Errorf("server: handshake host = %q", host)
	}
	var port uint16
	if err := binary.Read(r, binary.BigEndian, &port); err != nil {
		t.Errorf("server: handshake port: %v", err)
	}
	if port != 25565 {
		t.Errorf("server: handshake port = %d", port)
	}
	next, _, err := ReadVarInt(r)
	if err != nil || next != constants.Status {
		t.Errorf("server: handshake next_state = %d (%v), want 1", next, err)
	}

	if id, _, err = ReadFrame(conn); err != nil || id != constants.PacketStatusRequest {
		t.Errorf("server: status request id = 0x%02X (%v)", id, err)
		return
	}

	var buf bytes.Buffer
	WriteString(&buf, sc.statusJSON)
	if err := WriteFrame(conn, sc.statusID, buf.Bytes()); err != nil {
		t.Errorf("server: write status response: %v", err)
		return
	}

	id, payload, err = ReadFrame(conn)
	if err != nil || id != constants.PacketPing || len(payload) != 8 {
		t.Errorf("server: ping frame id=0x%02X len=%d (%v)", id, len(payload), err)
		return
	}
	echo := int64(binary.BigEndian.Uint64(payload)) + sc.pongDelta
	var pong [8]byte
	binary.BigEndian.PutUint64(pong[:], uint64(echo))
	if err := WriteFrame(conn, constants.PacketPong, pong[:]); err != nil {
		t.Errorf("server: write pong: %v", err)
	}
}

func TestSessionStatusFlow(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		serve(t, server, script{
			statusJSON: `{"version":{"name":"1.20.4","protocol":765},"players":{"online":3,"max":20,"sample":[{"name":"Alice","id":"0-0-0-0-0"},{"name":"Bob","id":"0-0-0-0-0"}]}}`,
		})
	}()

	sess := NewSession(client)
	if err := sess.Handshake("play.example.com", 25565); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	st, err := sess.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if *st.Players.Online != 3 || *st.Players.Max != 20 {
		t.Errorf("players = %d/%d, want 3/20", *st.Players.Online, *st.Players.Max)
	}
	if len(st.Players.Sample) != 2 || st.Players.Sample[0].Name != "Alice" {
		t.Errorf("sample = %+v", st.Players.Sample)
	}
	if st.Version.Name != "1.20.4" {
		t.Errorf("version = %q", st.Version.Name)
	}
	if err := sess.Ping(constants.PingPayload); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSessionPingMismatch(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		serve(t, server, script{
			statusJSON: `{"players":{"online":0,"max":20}}`,
			pongDelta:  1,
		})
	}()

	sess := NewSession(client)
	if err := sess.Handshake("play.example.com", 25565); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if _, err := sess.Status(); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if err := sess.Ping(constants.PingPayload); !errors.Is(err, ErrPingMismatch) {
		t.Fatalf("Ping = %v, want ErrPingMismatch", err)
	}
}

func TestSessionStatusMissingPlayers(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		ReadFrame(server) // handshake
		ReadFrame(server) // status request
		var buf bytes.Buffer
		WriteString(&buf, `{"version":{"name":"x"}}`)
		WriteFrame(server, constants.PacketStatusResponse, buf.Bytes())
	}()

	sess := NewSession(client)
	if err := sess.Handshake("play.example.com", 25565); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	_, err := sess.Status()
	var perr *Error
	if !errors.As(err, &perr) || perr.Op != "status" {
		t.Fatalf("Status = %v, want status protocol error", err)
	}
}

func TestSessionUnexpectedStatusPacketID(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		ReadFrame(server)
		ReadFrame(server)
		var buf bytes.Buffer
		WriteString(&buf, `{}`)
		WriteFrame(server, 0x7F, buf.Bytes())
	}()

	sess := NewSession(client)
	if err := sess.Handshake("play.example.com", 25565); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if _, err := sess.Status(); err == nil {
		t.Fatal("expected error for unexpected packet id")
	}
}

func TestSessionEnforcesCallOrder(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sess := NewSession(client)
	if _, err := sess.Status(); err == nil {
		t.Fatal("Status before Handshake should fail")
	}
	// The session is closed after a misuse; further calls fail too.
	if err := sess.Handshake("play.example.com", 25565); err == nil {
		t.Fatal("Handshake on a closed session should fail")
	}
}
