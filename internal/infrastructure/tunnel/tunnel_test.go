package tunnel

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// netDialer dials directly, standing in for an SSH client.
type netDialer struct {
	mu     sync.Mutex
	dials  int
	closed bool
	fail   error
}

func (d *netDialer) Dial(network, addr string) (net.Conn, error) {
	d.mu.Lock()
	d.dials++
	fail := d.fail
	d.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return net.Dial(network, addr)
}

func (d *netDialer) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// startEchoServer returns the address of a line echo server.
func startEchoServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				io.Copy(c, c) //nolint:errcheck // Test echo
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestTunnel_ForwardsTraffic(t *testing.T) {
	remote := startEchoServer(t)
	d := &netDialer{}

	tun, err := New(d, remote)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tun.Close() //nolint:errcheck // Test cleanup

	if tun.LocalPort() == 0 {
		t.Fatal("LocalPort() = 0, want ephemeral port")
	}

	conn, err := net.Dial("tcp", tun.LocalAddr())
	if err != nil {
		t.Fatalf("dialing tunnel: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ping\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // Test timeout
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "ping\n" {
		t.Errorf("echo = %q, want %q", line, "ping\n")
	}
}

func TestTunnel_Close(t *testing.T) {
	remote := startEchoServer(t)
	d := &netDialer{}

	tun, err := New(d, remote)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn, err := net.Dial("tcp", tun.LocalAddr())
	if err != nil {
		t.Fatalf("dialing tunnel: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte("x")) //nolint:errcheck // Establish the forward

	if err := tun.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := tun.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if !closed {
		t.Error("Close() did not close the ssh client")
	}

	if _, err := net.DialTimeout("tcp", tun.LocalAddr(), 500*time.Millisecond); err == nil {
		t.Error("listener still accepting after Close()")
	}
}

func TestTunnel_RemoteDialFailureDropsConnection(t *testing.T) {
	d := &netDialer{fail: errors.New("administratively prohibited")}

	tun, err := New(d, "127.0.0.1:1")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tun.Close() //nolint:errcheck // Test cleanup

	conn, err := net.Dial("tcp", tun.LocalAddr())
	if err != nil {
		t.Fatalf("dialing tunnel: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // Test timeout
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Error("Read() succeeded, want connection closed")
	}
}

func TestOpen_UnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = Open(ctx, Config{
		Host: "127.0.0.1", Port: port,
		User: "pool", Password: "secret",
		RemoteHost: "127.0.0.1", RemotePort: 3306,
	})
	if !errors.Is(err, ErrDialFailed) {
		t.Errorf("Open() error = %v, want ErrDialFailed", err)
	}
}

func TestOpen_HandshakeFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// Accept and hang up immediately: not an SSH server.
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = Open(ctx, Config{
		Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port,
		User: "pool", Password: "secret",
		RemoteHost: "127.0.0.1", RemotePort: 3306,
	})
	if !errors.Is(err, ErrDialFailed) {
		t.Errorf("Open() error = %v, want ErrDialFailed", err)
	}
}

func TestClientConfig(t *testing.T) {
	t.Run("invalid host key", func(t *testing.T) {
		_, err := clientConfig(Config{User: "pool", HostKey: "not a key"})
		if !errors.Is(err, ErrInvalidHostKey) {
			t.Errorf("clientConfig() error = %v, want ErrInvalidHostKey", err)
		}
	})

	t.Run("password auth", func(t *testing.T) {
		cfg, err := clientConfig(Config{User: "pool", Password: "secret"})
		if err != nil {
			t.Fatalf("clientConfig() error = %v", err)
		}
		if cfg.User != "pool" {
			t.Errorf("User = %q, want %q", cfg.User, "pool")
		}
		if len(cfg.Auth) != 1 {
			t.Errorf("len(Auth) = %d, want 1", len(cfg.Auth))
		}
		if cfg.HostKeyCallback == nil {
			t.Error("HostKeyCallback is nil")
		}
	})
}
