package transport

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProxyKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    ProxyKind
		wantErr bool
	}{
		{input: "", want: ProxyNone},
		{input: "none", want: ProxyNone},
		{input: "HTTP", want: ProxyHTTP},
		{input: " socks4 ", want: ProxySOCKS4},
		{input: "socks5", want: ProxySOCKS5},
		{input: "socks6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseProxyKind(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedProxyKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildDirect(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "direct")
	}))
	defer srv.Close()

	client, err := Selector{}.Build(Settings{Kind: ProxyNone})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.Timeout)

	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, tr.Proxy, "direct client must not consult any proxy")

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "direct", string(body))
}

func TestBuildHTTPProxy(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.String()
		_, _ = io.WriteString(w, "proxied")
	}))
	defer proxySrv.Close()

	addr := proxySrv.Listener.Addr().(*net.TCPAddr)
	client, err := Selector{Timeout: 5 * time.Second}.Build(Settings{
		Kind: ProxyHTTP,
		Host: addr.IP.String(),
		Port: addr.Port,
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get("http://api.example.invalid/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, "proxied", string(body))
	assert.Equal(t, "http://api.example.invalid/ping", <-seen)
}

func TestBuildSOCKSProxy(t *testing.T) {
	t.Parallel()

	for _, kind := range []ProxyKind{ProxySOCKS4, ProxySOCKS5} {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()

			host, port, targets := fakeSOCKS5(t)
			client, err := Selector{Timeout: 5 * time.Second}.Build(Settings{Kind: kind, Host: host, Port: port})
			require.NoError(t, err)

			tr, ok := client.Transport.(*http.Transport)
			require.True(t, ok)
			assert.Nil(t, tr.Proxy, "socks routing happens in the dialer")

			// The fake proxy refuses the CONNECT, so the request itself fails.
			_, err = client.Get("http://api.example.invalid:8080/ping")
			require.Error(t, err)

			select {
			case target := <-targets:
				assert.Equal(t, "api.example.invalid:8080", target)
			case <-time.After(5 * time.Second):
				t.Fatal("request never reached the socks proxy")
			}
		})
	}
}

func TestBuildUnsupportedKind(t *testing.T) {
	t.Parallel()

	_, err := Selector{}.Build(Settings{Kind: ProxyKind(42)})
	assert.ErrorIs(t, err, ErrUnsupportedProxyKind)
}

// fakeSOCKS5 accepts one SOCKS5 handshake, reports the requested target and
// refuses the connection.
func fakeSOCKS5(t *testing.T) (string, int, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	targets := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// greeting: VER NMETHODS METHODS...
		hdr := make([]byte, 2)
		if _, err := io.ReadFull(conn, hdr); err != nil {
			return
		}
		if _, err := io.ReadFull(conn, make([]byte, hdr[1])); err != nil {
			return
		}
		if _, err := conn.Write([]byte{0x05, 0x00}); err != nil {
			return
		}

		// request: VER CMD RSV ATYP DST.ADDR DST.PORT
		req := make([]byte, 4)
		if _, err := io.ReadFull(conn, req); err != nil {
			return
		}
		var host string
		switch req[3] {
		case 0x01:
			ip := make([]byte, 4)
			if _, err := io.ReadFull(conn, ip); err != nil {
				return
			}
			host = net.IP(ip).String()
		case 0x03:
			n := make([]byte, 1)
			if _, err := io.ReadFull(conn, n); err != nil {
				return
			}
			name := make([]byte, n[0])
			if _, err := io.ReadFull(conn, name); err != nil {
				return
			}
			host = string(name)
		default:
			return
		}
		p := make([]byte, 2)
		if _, err := io.ReadFull(conn, p); err != nil {
			return
		}
		targets <- net.JoinHostPort(host, strconv.Itoa(int(p[0])<<8|int(p[1])))

		_, _ = conn.Write([]byte{0x05, 0x01, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, targets
}
