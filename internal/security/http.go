// Package security guards outbound HTTP traffic issued by assistant tools.
// Every tool fetch goes through the HTTP validator so the model cannot be
// steered into requesting internal networks or cloud metadata services.
package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// HTTP validates outbound requests to prevent SSRF attacks.
type HTTP struct {
	maxResponseSize int64
	allowedSchemes  []string
}

// NewHTTP creates a new HTTP validator.
func NewHTTP() *HTTP {
	return &HTTP{
		maxResponseSize: 5 * 1024 * 1024, // 5MB
		allowedSchemes:  []string{"http", "https"},
	}
}

// ValidateURL validates whether a URL is safe to fetch.
// Checks protocol, hostname, and resolved IP address ranges.
func (v *HTTP) ValidateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	lowercasedScheme := strings.ToLower(parsedURL.Scheme)
	if !slices.Contains(v.allowedSchemes, lowercasedScheme) {
		return fmt.Errorf("disallowed protocol: %s (only http/https allowed)", parsedURL.Scheme)
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("invalid hostname")
	}

	if isDangerousHostname(hostname) {
		slog.Warn("SSRF attempt - dangerous hostname detected",
			"url", urlStr,
			"hostname", hostname,
			"security_event", "ssrf_dangerous_hostname")
		return fmt.Errorf("access denied: accessing internal networks or metadata services is not allowed")
	}

	// Resolve and check every address the hostname maps to. A public
	// hostname pointing at a private IP is still a rebinding attempt.
	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("unable to resolve hostname: %w", err)
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			slog.Warn("SSRF attempt - private IP detected",
				"url", urlStr,
				"hostname", hostname,
				"resolved_ip", ip.String(),
				"security_event", "ssrf_private_ip")
			return fmt.Errorf("access denied: accessing internal network IPs is not allowed (%s)", ip.String())
		}
	}

	return nil
}

// MaxResponseSize returns the maximum response body size tools may read.
func (v *HTTP) MaxResponseSize() int64 {
	return v.maxResponseSize
}

// Client creates an HTTP client that re-validates every redirect target.
func (v *HTTP) Client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Limit to maximum 3 redirects
			if len(via) >= 3 {
				slog.Warn("excessive redirects detected",
					"url", req.URL.String(),
					"redirect_count", len(via),
					"security_event", "excessive_redirects")
				return fmt.Errorf("stopped after 3 redirects")
			}

			// Check if the redirect URL is safe
			if err := v.ValidateURL(req.URL.String()); err != nil {
				slog.Warn("SSRF attempt - unsafe redirect detected",
					"redirect_url", req.URL.String(),
					"original_url", via[0].URL.String(),
					"redirect_chain_length", len(via),
					"security_event", "ssrf_unsafe_redirect")
				return fmt.Errorf("redirect to unsafe URL: %w", err)
			}

			return nil
		},
	}
}

// isDangerousHostname checks for local and metadata-service hostnames.
func isDangerousHostname(hostname string) bool {
	hostname = strings.ToLower(hostname)

	localHostnames := []string{
		"localhost",
		"127.0.0.1",
		"::1",
		"0.0.0.0",
	}

	if slices.Contains(localHostnames, hostname) {
		return true
	}

	// Cloud service metadata endpoints
	metadataEndpoints := []string{
		"169.254.169.254", // AWS, Azure, GCP
		"metadata.google.internal",
		"metadata",
	}

	for _, endpoint := range metadataEndpoints {
		if hostname == endpoint || strings.Contains(hostname, endpoint) {
			return true
		}
	}

	return false
}

// isPrivateIP checks if an IP belongs to a private or reserved range.
func isPrivateIP(ip net.IP) bool {
	privateIPv4Ranges := []string{
		"10.0.0.0/8",     // Class A private range
		"172.16.0.0/12",  // Class B private range
		"192.168.0.0/16", // Class C private range
		"127.0.0.0/8",    // Loopback
		"169.254.0.0/16", // Link-local (AWS metadata, etc.)
		"0.0.0.0/8",      // Local network
		"224.0.0.0/4",    // Multicast
		"240.0.0.0/4",    // Reserved
	}

	for _, cidr := range privateIPv4Ranges {
		_, subnet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if subnet.Contains(ip) {
			return true
		}
	}

	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// IPv6 Unique Local Address (ULA) fc00::/7
	if len(ip) == net.IPv6len && (ip[0] == 0xfc || ip[0] == 0xfd) {
		return true
	}

	return false
}
