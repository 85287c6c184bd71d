package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DocsAccessConfig guards the swagger UI
type DocsAccessConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs holds addresses or CIDR prefixes; empty allows everyone
	AllowedIPs []string
}

// DocsAccess hides the API docs when disabled (404), then applies the IP
// allow list (403) and finally the JWT check when RequireAuth is set.
// Unparseable allow list entries are ignored.
func DocsAccess(cfg DocsAccessConfig, auth gin.HandlerFunc) gin.HandlerFunc {
	prefixes := parseAllowList(cfg.AllowedIPs)
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", GetRequestID(c)))
			return
		}
		if restricted && !addrAllowed(c.ClientIP(), prefixes) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", GetRequestID(c)))
			return
		}
		if cfg.RequireAuth && auth != nil {
			auth(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

func parseAllowList(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if p, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

func addrAllowed(ip string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
