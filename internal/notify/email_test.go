package notify

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"resbook/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentRelay accepts connections and never sends the SMTP greeting.
func silentRelay(t *testing.T) (string, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestSMTPMailerRespectsContextDeadline(t *testing.T) {
	host, port := silentRelay(t)
	mailer := NewSMTPMailer(config.SMTPConfig{
		Host: host,
		Port: port,
		From: "resbook@corp.test",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := mailer.Send(ctx, "user@corp.test", "Booking approved", "see app")
	elapsed := time.Since(start)

	require.Error(t, err)
	// Deadline must cut the stalled relay off, not let the call hang.
	assert.Less(t, elapsed, time.Second)
}

func TestSMTPMailerDialFailure(t *testing.T) {
	mailer := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "resbook@corp.test"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := mailer.Send(ctx, "user@corp.test", "subject", "body")
	assert.Error(t, err)
}
