package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// WithAllowedIPs restricts access to clients whose address starts with one
// of the given prefixes. An empty list allows everyone.
func WithAllowedIPs(prefixes []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			logger.Info("ip access control is disabled")
			return next
		}
		logger.Info("ip access control middleware enabled", "allowed", prefixes)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isIPAllowed(prefixes, r.RemoteAddr) {
				logger.Warn("access denied", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				http.Error(w, "access denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isIPAllowed(prefixes []string, remoteAddr string) bool {
	clientIP, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		clientIP = remoteAddr
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(clientIP, prefix) {
			return true
		}
	}
	return false
}
