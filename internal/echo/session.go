package echo

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"netecho/internal/shared"
	"netecho/internal/shared/errors"
	"netecho/internal/shared/types"
	"netecho/internal/sockopt"
)

// session is one accepted connection: one read, one echo, one close.
type session struct {
	conn       net.Conn
	counted    *shared.CountedConn
	bufferSize int
	drain      time.Duration
	maxBytes   int
	closeDelay time.Duration
	abortive   bool
	log        zerolog.Logger
}

func newSession(conn net.Conn, cfg types.ServerConf, counters *shared.Counters, base zerolog.Logger) *session {
	return &session{
		conn:       conn,
		counted:    shared.NewCountedConn(conn, counters),
		bufferSize: cfg.BufferSize,
		drain:      cfg.DrainWindow(),
		maxBytes:   cfg.MaxEchoBytes,
		closeDelay: cfg.CloseDelay(),
		abortive:   cfg.AbortiveClose,
		log: base.With().
			Str("trace_id", uuid.NewString()).
			Str("peer", conn.RemoteAddr().String()).
			Logger(),
	}
}

func (s *session) run(ctx context.Context) {
	defer s.close()

	s.log.Info().Msg("Connection accepted")

	if s.abortive {
		if err := sockopt.SetAbortiveClose(s.conn); err != nil {
			s.log.Error().Err(err).Msg("Failed to configure abortive close")
			return
		}
	}

	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Now())
	})
	data, err := s.receive(ctx)
	stop()
	if err != nil {
		if errors.IsTimeout(err) && ctx.Err() != nil {
			s.log.Debug().Msg("Session interrupted by shutdown")
		} else {
			s.log.Warn().Err(err).Msg("Read failed")
		}
		return
	}

	s.log.Info().Int("len", len(data)).Msg("Data received")

	if len(data) > 0 {
		s.log.Debug().Str("data", describe(data)).Msg("Send")
		if _, err := s.counted.Write(data); err != nil {
			s.log.Warn().Err(err).Msg("Write failed")
			return
		}
	}

	time.Sleep(s.closeDelay)
}

// receive returns everything the peer sent in its first burst: the first
// chunk plus whatever arrives within the drain window after it. A peer that
// half-closes without sending yields an empty, non-nil slice and no error.
func (s *session) receive(ctx context.Context) ([]byte, error) {
	buf := make([]byte, s.bufferSize)
	n, err := s.counted.Read(buf)
	if n == 0 {
		if err == nil || err == io.EOF {
			return buf[:0], nil
		}
		return nil, err
	}

	data := make([]byte, 0, n)
	data = append(data, buf[:n]...)
	if err != nil {
		return data, nil
	}

	for s.drain > 0 && len(data) < s.maxBytes && ctx.Err() == nil {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.drain)); err != nil {
			break
		}
		limit := len(buf)
		if room := s.maxBytes - len(data); room < limit {
			limit = room
		}
		n, err := s.counted.Read(buf[:limit])
		data = append(data, buf[:n]...)
		if err != nil {
			break
		}
	}
	if len(data) >= s.maxBytes {
		s.log.Warn().Int("max_echo_bytes", s.maxBytes).Msg("Payload reached the echo limit")
	}
	return data, nil
}

func (s *session) close() {
	s.log.Info().Msg("Close the client socket")
	if err := s.conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("Close returned an error")
	}
}

const describeLimit = 64

// describe renders a chunk as text for logging only. Invalid UTF-8 is
// escaped, the bytes themselves are never altered. Long chunks are cut.
func describe(data []byte) string {
	if len(data) <= describeLimit {
		return strconv.Quote(string(data))
	}
	return strconv.Quote(string(data[:describeLimit])) + "...(" + strconv.Itoa(len(data)) + " bytes)"
}
