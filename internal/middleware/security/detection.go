// Package security sets response security headers, resolves client IPs
// behind trusted proxies and flags obviously hostile requests.
package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"smartspend/internal/log"
	"smartspend/internal/metrics"
)

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	suspiciousAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
	}
	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

// maxURLLength flags possible overflow probes.
const maxURLLength = 2048

type Detector struct {
	trustedProxies []*net.IPNet
}

// NewDetector trusts loopback and private networks to set forwarding headers.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []*net.IPNet{
			mustParseCIDR("127.0.0.0/8"),
			mustParseCIDR("::1/128"),
			mustParseCIDR("10.0.0.0/8"),
			mustParseCIDR("172.16.0.0/12"),
			mustParseCIDR("192.168.0.0/16"),
		},
	}
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// Inspect reports whether r looks like a probe and why.
func (d *Detector) Inspect(r *http.Request) (bool, string) {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true, "pattern " + p
		}
	}

	ua := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range suspiciousAgents {
		if strings.Contains(ua, a) {
			return true, "agent " + a
		}
	}

	for _, m := range unusualMethods {
		if r.Method == m {
			return true, "method " + m
		}
	}

	if len(r.URL.String()) > maxURLLength {
		return true, "long url"
	}

	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return true, "forwarding chain"
	}
	return false, ""
}

// ExtractClientIP returns the caller's IP. Forwarding headers are honoured
// only when the direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !d.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// Middleware logs and counts suspicious requests. Requests are not blocked.
func (d *Detector) Middleware(logger *log.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bad, reason := d.Inspect(r); bad {
				m.SuspiciousRequest()
				if logger != nil {
					logger.WarnContext(r.Context(), "Suspicious request",
						log.FieldClientIP, d.ExtractClientIP(r),
						log.FieldMethod, r.Method,
						log.FieldPath, r.URL.Path,
						"reason", reason)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
