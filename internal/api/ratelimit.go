package api

import (
	"fmt"
	"math"
	"net"
	"net/netip"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/imagevault/imagevault-server/internal/errors"
)

// rateLimitLogin throttles login attempts per client IP.
// Returns 429 with Retry-After when the limit is exceeded.
func (s *Server) rateLimitLogin(ctx huma.Context, next func(huma.Context)) {
	if s.loginLimiter == nil {
		next(ctx)
		return
	}

	key := s.proxies.clientIP(ctx.Header, ctx.RemoteAddr())
	allowed, retryAfter := s.loginLimiter.Reserve(key)
	if !allowed {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		ctx.SetHeader("Retry-After", strconv.Itoa(seconds))
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many login attempts",
			domainerrors.RateLimited("too many login attempts, try again later"))
		return
	}

	next(ctx)
}

// trustedProxies lists the peers whose X-Forwarded-For and X-Real-IP
// headers are believed. Requests from any other peer are keyed on their
// socket address, so a client cannot pick its own rate limit bucket.
type trustedProxies []netip.Prefix

// parseTrustedProxies accepts single addresses and CIDR ranges.
func parseTrustedProxies(entries []string) (trustedProxies, error) {
	var proxies trustedProxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		proxies = append(proxies, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return proxies, nil
}

func (tp trustedProxies) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range tp {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// fromRequest extracts the client IP from the request.
func (tp trustedProxies) fromRequest(r *http.Request) string {
	return tp.clientIP(r.Header.Get, r.RemoteAddr)
}

// clientIP returns the peer address with its port stripped. Only when the
// peer is a trusted proxy are forwarding headers consulted: X-Forwarded-For
// is walked from the right and the first hop that is not itself a trusted
// proxy is the client.
func (tp trustedProxies) clientIP(header func(string) string, remoteAddr string) string {
	peer, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		peer = remoteAddr
	}
	if !tp.trusts(peer) {
		return peer
	}

	if xff := header("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		client := ""
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			client = hop
			if !tp.trusts(hop) {
				break
			}
		}
		if client != "" {
			return client
		}
	}

	if xri := strings.TrimSpace(header("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return peer
}
