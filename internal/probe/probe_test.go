package probe

import (
	"io"
	"net"
	"strings"
	"testing"
)

func TestRandomAlphanumeric(t *testing.T) {
	for _, n := range []int{0, 1, ShortSecretLen, LongSecretLen} {
		s := RandomAlphanumeric(n)
		if len(s) != n {
			t.Fatalf("len(RandomAlphanumeric(%d)) = %d", n, len(s))
		}
		if i := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(alphanumeric, r) }); i >= 0 {
			t.Fatalf("RandomAlphanumeric(%d) has non-alphanumeric %q at %d", n, s[i], i)
		}
	}
	if RandomAlphanumeric(ShortSecretLen) == RandomAlphanumeric(ShortSecretLen) {
		t.Fatal("two consecutive secrets are identical")
	}
}

func TestIdentConnCapturesVersionAcrossReads(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	go func() {
		// Pre-banner text is allowed before the identification line.
		for _, chunk := range []string{"Welcome\r\n", "SSH-2.0-Open", "SSH_9.6p1 Ubuntu\r", "\nrest"} {
			server.Write([]byte(chunk))
		}
		server.Close()
	}()

	c := newIdentConn(client)
	defer c.Close()

	buf := make([]byte, 3)
	for {
		if _, err := c.Read(buf); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("read: %v", err)
		}
	}

	if got := c.ServerVersion(); got != "SSH-2.0-OpenSSH_9.6p1 Ubuntu" {
		t.Fatalf("ServerVersion() = %q", got)
	}
}

func TestParseProxy(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "socks5://127.0.0.1:1080", want: "socks5://127.0.0.1:1080"},
		{in: "socks5:10.0.0.1:9050", want: "socks5://10.0.0.1:9050"},
		{in: "SOCKS5H://user:pw@proxy:1080", want: "socks5h://user:pw@proxy:1080"},
		{in: "socks5://nohostport", wantErr: true},
		{in: "socks5", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tt := range tests {
		u, err := ParseProxy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseProxy(%q) = %v, want error", tt.in, u)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProxy(%q): %v", tt.in, err)
			continue
		}
		if u.String() != tt.want {
			t.Errorf("ParseProxy(%q) = %q, want %q", tt.in, u.String(), tt.want)
		}
	}
}

func TestNewDialer(t *testing.T) {
	d, err := NewDialer(nil)
	if err != nil {
		t.Fatalf("NewDialer(nil): %v", err)
	}
	if _, ok := d.(*net.Dialer); !ok {
		t.Errorf("NewDialer(nil) = %T, want *net.Dialer", d)
	}

	if _, err := NewDialer([]string{"socks5://127.0.0.1:1080", "socks5h://10.0.0.1:9050"}); err != nil {
		t.Errorf("NewDialer(socks chain): %v", err)
	}
	if _, err := NewDialer([]string{"gopher://127.0.0.1:70"}); err == nil {
		t.Error("NewDialer accepted an unsupported proxy scheme")
	}
}
