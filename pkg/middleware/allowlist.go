package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/binderlink/binderlink/internal/errors"
)

// Allowlist admits requests whose client address falls in one of its
// prefixes. An empty Allowlist admits everyone.
type Allowlist struct {
	prefixes []netip.Prefix
}

// NewAllowlist parses entries given as CIDR prefixes ("10.0.0.0/8") or bare
// addresses ("127.0.0.1", "::1").
func NewAllowlist(entries []string) (*Allowlist, error) {
	a := &Allowlist{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, errors.New("E102").WithDetailf("metrics.allowedIps: %q", e).Wrap(err)
			}
			a.prefixes = append(a.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, errors.New("E102").WithDetailf("metrics.allowedIps: %q", e).Wrap(err)
		}
		addr = addr.Unmap()
		a.prefixes = append(a.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return a, nil
}

// Len returns the number of prefixes.
func (a *Allowlist) Len() int { return len(a.prefixes) }

// Allows reports whether addr is admitted.
func (a *Allowlist) Allows(addr netip.Addr) bool {
	if len(a.prefixes) == 0 {
		return true
	}
	addr = addr.Unmap()
	for _, p := range a.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Handler rejects requests from addresses outside the list with 403. The
// client address is read from RemoteAddr, so mount chi's RealIP first when
// running behind a proxy.
func (a *Allowlist) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, ok := remoteAddr(r.RemoteAddr)
		if !ok || !a.Allows(addr) {
			e := errors.New("E125").WithDetail(r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(e.HTTPStatus())
			_, _ = w.Write([]byte(e.FormatJSON()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// remoteAddr parses "host:port" or a bare host.
func remoteAddr(s string) (netip.Addr, bool) {
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}
