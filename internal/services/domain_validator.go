package services

import (
	"net"
	"strings"

	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/models"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

const (
	minSubdomainLength = 3
	maxSubdomainLength = 30
	maxDomainLength    = 253
	maxLabelLength     = 63
)

// builtinReservedSubdomains can never be claimed by a published site
var builtinReservedSubdomains = []string{
	"www", "admin", "api", "app", "staging", "dev", "test",
	"mail", "smtp", "ftp", "cdn", "static", "assets", "hosting",
	"dashboard", "status", "support", "help", "docs", "blog",
	"preview", "internal",
}

// DomainValidator classifies candidate subdomains and customer domains. It
// holds no state besides the platform names it was built with.
type DomainValidator struct {
	rootDomains []string
	reserved    map[string]struct{}
}

// NewDomainValidator creates a validator for the platform's zone and reserved names
func NewDomainValidator(cfg config.PlatformConfig) *DomainValidator {
	reserved := make(map[string]struct{}, len(builtinReservedSubdomains)+len(cfg.ReservedSubdomains)+1)
	for _, name := range builtinReservedSubdomains {
		reserved[name] = struct{}{}
	}
	for _, name := range cfg.ReservedSubdomains {
		reserved[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	if cfg.BrandName != "" {
		reserved[strings.ToLower(cfg.BrandName)] = struct{}{}
	}

	roots := make([]string, 0, len(cfg.RootDomains)+1)
	for _, root := range append([]string{cfg.Zone}, cfg.RootDomains...) {
		root = strings.Trim(strings.ToLower(strings.TrimSpace(root)), ".")
		if root != "" {
			roots = append(roots, root)
		}
	}

	return &DomainValidator{rootDomains: roots, reserved: reserved}
}

// IsValidSubdomainFormat reports whether name can be claimed under the platform zone
func (v *DomainValidator) IsValidSubdomainFormat(name string) bool {
	if len(name) < minSubdomainLength || len(name) > maxSubdomainLength {
		return false
	}

	onlyHyphens := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			onlyHyphens = false
		case r == '-':
		default:
			return false
		}
	}
	if onlyHyphens {
		return false
	}

	return !v.IsReserved(name)
}

// IsReserved reports whether a subdomain is held back by the platform
func (v *DomainValidator) IsReserved(name string) bool {
	_, ok := v.reserved[name]
	return ok
}

// IsValidDomainFormat reports whether domain is a hostname a customer may
// attach. Case is ignored.
func (v *DomainValidator) IsValidDomainFormat(domain string) bool {
	_, ok := v.CanonicalDomain(domain)
	return ok
}

// CanonicalDomain returns the stored form of a customer domain, lowercase
// IDNA ASCII as browsers send it in the Host header. Reports false when the
// domain is not a hostname a customer may attach.
func (v *DomainValidator) CanonicalDomain(domain string) (string, bool) {
	if domain == "" || strings.ContainsAny(domain, " \t\r\n") || strings.Contains(domain, "://") {
		return "", false
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", false
	}
	ascii = strings.ToLower(ascii)
	if len(ascii) > maxDomainLength {
		return "", false
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", false
	}
	for _, label := range labels {
		if !isValidLabel(label) {
			return "", false
		}
	}
	if !isValidTLD(labels[len(labels)-1]) {
		return "", false
	}
	if v.IsPlatformDomain(ascii) {
		return "", false
	}

	return ascii, true
}

// IsPlatformDomain reports whether host is a platform root or sits under one
func (v *DomainValidator) IsPlatformDomain(host string) bool {
	host = strings.ToLower(host)
	for _, root := range v.rootDomains {
		if host == root || strings.HasSuffix(host, "."+root) {
			return true
		}
	}
	return false
}

// PlatformSubdomain returns the claimed name when host is <name>.<root> for
// a platform root, e.g. "mysite.bakedbot.site" -> "mysite".
func (v *DomainValidator) PlatformSubdomain(host string) (string, bool) {
	for _, root := range v.rootDomains {
		if name, ok := strings.CutSuffix(host, "."+root); ok && name != "" && !strings.Contains(name, ".") {
			return name, true
		}
	}
	return "", false
}

func isValidLabel(label string) bool {
	if len(label) == 0 || len(label) > maxLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}

func isValidTLD(label string) bool {
	if strings.HasPrefix(label, "xn--") {
		return len(label) > 4
	}
	if len(label) < 2 {
		return false
	}
	for _, r := range label {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// NormalizeHostname reduces an inbound Host value to its lookup key:
// trimmed, without port or trailing dot, lowercased, and in IDNA ASCII
// form when it converts.
func NormalizeHostname(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	return strings.ToLower(host)
}

// DetectDomainType determines if domain is apex or subdomain
func DetectDomainType(domain string) models.DomainType {
	domain = NormalizeHostname(domain)
	registrable, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil || registrable == domain {
		return models.DomainTypeApex
	}
	return models.DomainTypeSubdomain
}

// AliasFor returns the www/apex counterpart of host, or "" when it has none.
// "www.example.com" <-> "example.com"; "shop.example.com" has no alias.
func AliasFor(host string) string {
	if apex, ok := strings.CutPrefix(host, "www."); ok {
		if DetectDomainType(apex) == models.DomainTypeApex && strings.Contains(apex, ".") {
			return apex
		}
		return ""
	}
	if strings.Contains(host, ".") && DetectDomainType(host) == models.DomainTypeApex {
		return "www." + host
	}
	return ""
}
