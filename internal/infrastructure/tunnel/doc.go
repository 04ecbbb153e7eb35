// Package tunnel opens SSH local port forwards.
//
// A Tunnel authenticates to an SSH server with a password, listens on an
// ephemeral loopback port and forwards every accepted connection through the
// SSH session to a fixed remote address (typically the database bound on the
// server's own loopback interface). Database drivers then connect to
// LocalAddr() as if the remote service were local.
//
// Thread Safety:
//   - A Tunnel may serve many concurrent forwarded connections.
//   - Close is safe to call more than once.
//
// Usage:
//
//	t, err := tunnel.Open(ctx, tunnel.Config{
//	    Host: "ssh.example.com", Port: 22,
//	    User: "pool", Password: secret,
//	    RemoteHost: "127.0.0.1", RemotePort: 3306,
//	})
//	if err != nil {
//	    return err
//	}
//	defer t.Close()
//
//	addr := t.LocalAddr() // "127.0.0.1:53211"
package tunnel
