// Package validation checks user input before it reaches the API: API
// origins, phone numbers, OTPs, pin codes, IFSC codes and prices.
//
// API origins must be http(s) and may not point at cloud metadata endpoints.
// Loopback hosts are always accepted so a local development server works;
// other private ranges need MANGIEE_ALLOW_PRIVATE or SetAllowPrivate(true).
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var allowPrivate atomic.Bool

var privateNetworks []*net.IPNet

// lookupIP resolves API hostnames. Tests replace it.
var lookupIP = func(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip", host)
}

func init() {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("MANGIEE_ALLOW_PRIVATE")))
	allowPrivate.Store(v)

	privateCIDRs := []string{
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918
		"192.168.0.0/16", // RFC1918
		"100.64.0.0/10",  // RFC6598
		"169.254.0.0/16", // RFC3927 link local
		"192.0.0.0/24",   // RFC6890
		"198.18.0.0/15",  // RFC2544
		"240.0.0.0/4",    // reserved
		"fc00::/7",       // RFC4193
		"fe80::/10",      // RFC4291 link local
		"2001:db8::/32",  // RFC3849
	}

	privateNetworks = make([]*net.IPNet, 0, len(privateCIDRs))
	for _, cidr := range privateCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// SetAllowPrivate enables or disables private network API origins.
// Cloud metadata endpoints stay blocked either way.
func SetAllowPrivate(enabled bool) {
	allowPrivate.Store(enabled)
}

// AllowPrivateEnabled reports the current private network setting.
func AllowPrivateEnabled() bool {
	return allowPrivate.Load()
}

// ValidateAPIURL checks an API origin before it is used for requests.
func ValidateAPIURL(rawURL string) error {
	parsed, err := parseHTTPURL(rawURL)
	if err != nil {
		return err
	}
	hostname := parsed.Hostname()

	if isCloudMetadata(hostname) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}
	if isLocalhost(hostname) {
		return nil
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return validateIPAddress(ip)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	ips, err := lookupIP(ctx, hostname)
	if err != nil {
		// Unresolvable hosts surface later as transport errors.
		return nil
	}
	for _, ip := range ips {
		if err := validateIPAddress(ip); err != nil {
			return fmt.Errorf("domain %q resolves to forbidden IP %s: %w", hostname, ip.String(), err)
		}
	}
	return nil
}

// ValidateImageURL checks a remote image reference. Only the shape is
// checked; the server fetches nothing from it.
func ValidateImageURL(rawURL string) error {
	_, err := parseHTTPURL(rawURL)
	return err
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return nil, fmt.Errorf("URL exceeds maximum length of %d characters", MaxURLLength)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("URL must contain a hostname")
	}
	return parsed, nil
}

func isLocalhost(hostname string) bool {
	lowercase := strings.ToLower(hostname)
	switch lowercase {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(lowercase, ".localhost")
}

func isCloudMetadata(hostname string) bool {
	lowercase := strings.ToLower(hostname)
	switch lowercase {
	case "169.254.169.254", "metadata.google.internal", "metadata", "instance-data", "fd00:ec2::254":
		return true
	}
	return strings.HasSuffix(lowercase, ".metadata.google.internal")
}

func validateIPAddress(ip net.IP) error {
	if ip.String() == "169.254.169.254" {
		return fmt.Errorf("cloud metadata IP address is not allowed")
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified IP addresses are not allowed")
	}
	if ip.IsLoopback() {
		return nil
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local IP addresses are not allowed")
	}
	if !allowPrivate.Load() && isPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed (set MANGIEE_ALLOW_PRIVATE=1 for a LAN dev server)")
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
