package macauth

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// SigningString derives the canonical string signed by the MAC scheme:
// the ts, nonce, uppercase method, path with raw query, lowercase host,
// resolved port, and extension values, each terminated by a newline.
//
// This is the wire-level contract between client and server: both sides
// must produce it byte for byte.
func SigningString(r *http.Request, params Params) (string, error) {
	host, port, err := hostPort(r)
	if err != nil {
		return "", err
	}

	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}

	if q := r.URL.RawQuery; q != "" {
		path += "?" + q
	}

	lines := []string{
		params.Attrs["ts"],
		params.Attrs["nonce"],
		strings.ToUpper(r.Method),
		path,
		host,
		port,
		params.Ext(),
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String(), nil
}

// hostPort resolves the lowercase host (without port) and the port for the
// request. An explicit port in the host wins; otherwise the scheme's
// registered default applies. With neither, resolution fails with
// ErrUnknownScheme rather than guessing.
func hostPort(r *http.Request) (string, string, error) {
	hostport := authority(r)

	if host, port, err := net.SplitHostPort(hostport); err == nil {
		return host, port, nil
	}

	switch s := scheme(r); s {
	case "http":
		return hostport, "80", nil

	case "https":
		return hostport, "443", nil

	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
}

// authority returns the lowercase host[:port] for the request. net/http
// stores the Host header on Request.Host for server requests and on the
// URL for client requests.
func authority(r *http.Request) string {
	if r.Host != "" {
		return strings.ToLower(r.Host)
	}

	if r.URL != nil && r.URL.Host != "" {
		return strings.ToLower(r.URL.Host)
	}

	return ""
}

// scheme returns the request scheme, defaulting to http for plaintext
// server requests.
func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}

	if r.URL != nil && r.URL.Scheme != "" {
		return strings.ToLower(r.URL.Scheme)
	}

	return "http"
}
