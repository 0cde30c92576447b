package middleware

import (
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// LocalOnly rejects requests that do not come from a loopback address. The
// roster holds one user's state and has no accounts, so the socket itself is
// the access boundary.
func LocalOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !isLoopbackHost(host) {
			log.Warnf("[middleware.LocalOnly] rejected remote address %s", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
