package tunnel

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// defaultDialTimeout bounds the SSH dial and handshake when ctx has no deadline.
const defaultDialTimeout = 15 * time.Second

// Config holds the SSH endpoint and the remote address to forward to.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// RemoteHost and RemotePort are resolved on the SSH server side.
	RemoteHost string
	RemotePort int

	// HostKey is an authorized_keys formatted public key. When empty the
	// server key is not verified.
	HostKey string
}

// Logger is the optional logging interface used for forwarding failures.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// Dialer opens connections from the far side of the tunnel.
// *ssh.Client satisfies it.
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
	Close() error
}

// Tunnel is an open local port forward.
type Tunnel struct {
	dialer   Dialer
	listener net.Listener
	remote   string
	logger   Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool

	wg sync.WaitGroup
}

// Open dials the SSH server and starts forwarding.
//
// Parameters:
//   - ctx: Bounds the SSH dial and handshake
//   - cfg: SSH endpoint, credentials and remote address
//
// Returns:
//   - *Tunnel: Running tunnel; callers must Close it
//   - error: ErrDialFailed, ErrListenFailed or ErrInvalidHostKey (wrapped)
func Open(ctx context.Context, cfg Config) (*Tunnel, error) {
	clientCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := dial(ctx, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), clientCfg)
	if err != nil {
		return nil, err
	}

	remote := net.JoinHostPort(cfg.RemoteHost, strconv.Itoa(cfg.RemotePort))
	t, err := New(client, remote)
	if err != nil {
		client.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	return t, nil
}

// New starts forwarding a loopback listener to remote through d.
// The tunnel takes ownership of d and closes it on Close.
func New(d Dialer, remote string) (*Tunnel, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListenFailed, err)
	}

	t := &Tunnel{
		dialer:   d,
		listener: ln,
		remote:   remote,
		conns:    make(map[net.Conn]struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// SetLogger sets the logger for forwarding failures.
// Call before traffic flows through the tunnel.
func (t *Tunnel) SetLogger(logger Logger) {
	t.mu.Lock()
	t.logger = logger
	t.mu.Unlock()
}

// LocalAddr returns the loopback host:port that forwards to the remote address.
func (t *Tunnel) LocalAddr() string {
	return t.listener.Addr().String()
}

// LocalPort returns the port of LocalAddr.
func (t *Tunnel) LocalPort() int {
	if addr, ok := t.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Close stops the listener, closes forwarded connections and the SSH session.
func (t *Tunnel) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	for c := range t.conns {
		c.Close() //nolint:errcheck // Forcing shutdown
	}
	t.mu.Unlock()

	lnErr := t.listener.Close()
	t.wg.Wait()

	if err := t.dialer.Close(); err != nil {
		return fmt.Errorf("closing ssh client: %w", err)
	}
	if lnErr != nil {
		return fmt.Errorf("closing listener: %w", lnErr)
	}
	return nil
}

func (t *Tunnel) acceptLoop() {
	defer t.wg.Done()

	for {
		local, err := t.listener.Accept()
		if err != nil {
			return
		}
		if !t.track(local) {
			local.Close() //nolint:errcheck // Tunnel closing
			return
		}

		t.wg.Add(1)
		go t.forward(local)
	}
}

// forward pipes one accepted connection to the remote address.
func (t *Tunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer t.untrack(local)
	defer local.Close() //nolint:errcheck // Closed on every exit path

	remote, err := t.dialer.Dial("tcp", t.remote)
	if err != nil {
		t.warn("tunnel remote dial failed", "remote", t.remote, "error", err)
		return
	}
	if !t.track(remote) {
		remote.Close() //nolint:errcheck // Tunnel closing
		return
	}
	defer t.untrack(remote)
	defer remote.Close() //nolint:errcheck // Closed on every exit path

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local) //nolint:errcheck // Ends when either side closes
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote) //nolint:errcheck // Ends when either side closes
		done <- struct{}{}
	}()

	// Either direction finishing tears the pair down.
	<-done
}

func (t *Tunnel) track(c net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.conns[c] = struct{}{}
	return true
}

func (t *Tunnel) untrack(c net.Conn) {
	t.mu.Lock()
	delete(t.conns, c)
	t.mu.Unlock()
}

func (t *Tunnel) warn(msg string, args ...any) {
	t.mu.Lock()
	logger := t.logger
	t.mu.Unlock()
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

// clientConfig builds the SSH client configuration for password auth.
func clientConfig(cfg Config) (*ssh.ClientConfig, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // Host key pinning is opt-in via ssh.host_key
	if cfg.HostKey != "" {
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(cfg.HostKey))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidHostKey, err)
		}
		hostKeyCallback = ssh.FixedHostKey(key)
	}

	return &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         defaultDialTimeout,
	}, nil
}

// dial connects and performs the SSH handshake within ctx.
func dial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultDialTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, addr, err)
	}

	// The handshake itself is not context aware; bound it with a deadline.
	deadline, _ := ctx.Deadline()
	conn.SetDeadline(deadline) //nolint:errcheck // Cleared after handshake

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, addr, err)
	}
	conn.SetDeadline(time.Time{}) //nolint:errcheck // Session lives past the handshake

	return ssh.NewClient(sshConn, chans, reqs), nil
}
