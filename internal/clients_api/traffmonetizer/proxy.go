package traffmonetizer

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ProxyScheme is the protocol used to talk to the upstream proxy.
type ProxyScheme string

const (
	ProxySOCKS5 ProxyScheme = "socks5"
	ProxyHTTP   ProxyScheme = "http"
	ProxyHTTPS  ProxyScheme = "https"
)

// ParseProxyScheme accepts "socks5", "http" or "https" (case-insensitive).
func ParseProxyScheme(s string) (ProxyScheme, error) {
	switch scheme := ProxyScheme(strings.ToLower(strings.TrimSpace(s))); scheme {
	case ProxySOCKS5, ProxyHTTP, ProxyHTTPS:
		return scheme, nil
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxySpec, s)
	}
}

// ProxyKind tells which form a proxy spec was given in.
type ProxyKind int

const (
	NoProxy     ProxyKind = iota
	SimpleProxy           // host:port
	AuthProxy             // host:port:username:password
)

func (k ProxyKind) String() string {
	switch k {
	case SimpleProxy:
		return "simple"
	case AuthProxy:
		return "auth"
	default:
		return "none"
	}
}

// ProxyConfig is a parsed proxy spec. Username and Password are only set for AuthProxy.
type ProxyConfig struct {
	Kind     ProxyKind
	Scheme   ProxyScheme
	Host     string
	Port     string
	Username string
	Password string
}

// URL renders the config as scheme://[user:pass@]host:port. It is nil for NoProxy.
func (p ProxyConfig) URL() *url.URL {
	if p.Kind == NoProxy {
		return nil
	}
	u := &url.URL{
		Scheme: string(p.Scheme),
		Host:   net.JoinHostPort(p.Host, p.Port),
	}
	if p.Kind == AuthProxy {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// String never includes the password.
func (p ProxyConfig) String() string {
	if p.Kind == NoProxy {
		return "direct"
	}
	return p.Redacted()
}

// Redacted is URL() with the password masked, for logs.
func (p ProxyConfig) Redacted() string {
	u := p.URL()
	if u == nil {
		return ""
	}
	return u.Redacted()
}

// ParseProxySpec classifies a colon-delimited proxy spec.
// An empty spec yields NoProxy. Two fields are host:port, four are host:port:username:password;
// any other field count is ErrInvalidProxySpec.
func ParseProxySpec(spec string, scheme ProxyScheme) (ProxyConfig, error) {
	if spec == "" {
		return ProxyConfig{Kind: NoProxy}, nil
	}

	scheme, err := ParseProxyScheme(string(scheme))
	if err != nil {
		return ProxyConfig{}, err
	}

	fields := strings.Split(spec, ":")
	switch len(fields) {
	case 2:
		return ProxyConfig{
			Kind:   SimpleProxy,
			Scheme: scheme,
			Host:   fields[0],
			Port:   fields[1],
		}, nil
	case 4:
		return ProxyConfig{
			Kind:     AuthProxy,
			Scheme:   scheme,
			Host:     fields[0],
			Port:     fields[1],
			Username: fields[2],
			Password: fields[3],
		}, nil
	default:
		return ProxyConfig{}, fmt.Errorf("%w: expected host:port or host:port:username:password, got %d fields",
			ErrInvalidProxySpec, len(fields))
	}
}
