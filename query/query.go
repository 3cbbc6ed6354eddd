// Package query resolves a target and drives one server list ping
// session against it under a shared timeout.
package query

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/Tnze/go-mc/chat"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/skyezerfox/mcstat/constants"
	"github.com/skyezerfox/mcstat/models"
	"github.com/skyezerfox/mcstat/protocol"
)

// ErrTimeout means the connect+handshake+status+ping sequence did not
// finish within the configured duration.
var ErrTimeout = errors.New("server did not respond in time")

// DefaultTimeout bounds the whole network phase unless overridden.
const DefaultTimeout = 2 * time.Second

// Result is the reduced status of one query.
type Result struct {
	Online  int
	Max     int
	Players []string // sampled names, nil when the server sent no sample
	Version string
	MOTD    string
}

// Options tune one Run call.
type Options struct {
	// Timeout covers the entire network phase, not individual packets.
	// Zero means DefaultTimeout.
	Timeout time.Duration
	// Progress, when set, receives a short message as each phase starts.
	// Purely cosmetic.
	Progress func(msg string)
}

// Run dials the target and performs the handshake, status and ping
// phases on one connection. When the status was already obtained and
// only the ping misbehaved, Run returns the Result together with the
// ping error rather than discarding it.
func Run(ctx context.Context, target Target, opts Options) (*Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(string) {}
	}

	port := target.Port
	if !target.HasPort {
		port = constants.DefaultPort
	}
	addr := net.JoinHostPort(target.Host, strconv.Itoa(int(port)))
	deadline := time.Now().Add(timeout)

	progress("Connecting...")
	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer conn.Close()

	// Interrupt tears the socket out from under any blocked read.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetDeadline(deadline)
	sess := protocol.NewSession(conn)

	if err := sess.Handshake(target.Host, port); err != nil {
		return nil, classify(ctx, err)
	}

	progress("Fetching status...")
	status, err := sess.Status()
	if err != nil {
		return nil, classify(ctx, err)
	}
	res := reduce(status)

	progress("Pinging...")
	if err := sess.Ping(constants.PingPayload); err != nil {
		// Status is already in hand, surface both.
		return res, classify(ctx, err)
	}
	return res, nil
}

// classify maps low-level failures onto the error taxonomy the caller
// reports: cancellation beats everything, deadline errors become
// ErrTimeout, the rest pass through.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	return err
}

func reduce(status *models.ServerStatus) *Result {
	res := &Result{
		Online:  *status.Players.Online,
		Max:     *status.Players.Max,
		Version: status.Version.Name,
	}
	for _, s := range status.Players.Sample {
		if _, err := uuid.Parse(s.ID); err != nil {
			log.Debug().Str("name", s.Name).Str("id", s.ID).Msg("bad uuid in player sample")
		}
		res.Players = append(res.Players, s.Name)
	}
	if len(status.Description) > 0 {
		var motd chat.Message
		if err := motd.UnmarshalJSON(status.Description); err == nil {
			res.MOTD = motd.ClearString()
		}
	}
	return res
}
