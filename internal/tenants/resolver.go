package tenants

import (
	"net"
	"strings"
)

// SlugFromHost maps a request hostname onto a tenant slug under the
// configured base domain. The bare base domain and its www alias are the
// global site; foreign hosts and nested subdomains resolve to no tenant.
func SlugFromHost(host, baseDomain string) (string, bool) {
	h := normalizeHost(host)
	base := normalizeHost(baseDomain)
	if h == "" || base == "" {
		return "", false
	}

	if h == base || h == "www."+base {
		return "", false
	}

	suffix := "." + base
	if !strings.HasSuffix(h, suffix) {
		return "", false
	}

	label := strings.TrimSuffix(h, suffix)
	if label == "" || label == "www" || strings.Contains(label, ".") {
		return "", false
	}
	return label, true
}

// IsLocalhost reports whether the host targets a local development server,
// where the tenant comes from a query parameter instead of the subdomain.
func IsLocalhost(host string) bool {
	h := normalizeHost(host)
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}

func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return ""
	}
	if stripped, _, err := net.SplitHostPort(h); err == nil {
		h = stripped
	}
	return strings.TrimSuffix(h, ".")
}
