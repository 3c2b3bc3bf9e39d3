package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vibe-domain-service/internal/config"

	"github.com/miekg/dns"
	"github.com/rs/zerolog/log"
)

// DNSCheckResult contains the result of a DNS record check
type DNSCheckResult struct {
	Verified  bool
	Found     string
	Expected  string
	Message   string
	CheckedAt time.Time
}

// RecordChecker looks up the records a customer was asked to create
type RecordChecker interface {
	CheckCNAME(ctx context.Context, host, expected string) (*DNSCheckResult, error)
	CheckNameservers(ctx context.Context, host string, expected []string) (*DNSCheckResult, error)
}

// DNSChecker queries a configured resolver directly
type DNSChecker struct {
	client *dns.Client
	server string
}

// NewDNSChecker creates a new DNS checker
func NewDNSChecker(cfg config.DNSConfig) *DNSChecker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DNSChecker{
		client: &dns.Client{Net: "udp", Timeout: timeout},
		server: cfg.ResolverAddr,
	}
}

func (c *DNSChecker) query(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	resp, _, err := c.client.ExchangeContext(ctx, msg, c.server)
	if err != nil {
		return nil, fmt.Errorf("%s lookup for %s: %w", dns.TypeToString[qtype], name, err)
	}
	if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
		return nil, fmt.Errorf("%s lookup for %s: %s", dns.TypeToString[qtype], name, dns.RcodeToString[resp.Rcode])
	}
	return resp, nil
}

// LookupCNAME returns the CNAME target of host, or "" when it has none
func (c *DNSChecker) LookupCNAME(ctx context.Context, host string) (string, error) {
	resp, err := c.query(ctx, host, dns.TypeCNAME)
	if err != nil {
		return "", err
	}
	for _, rr := range resp.Answer {
		if cname, ok := rr.(*dns.CNAME); ok {
			return canonicalName(cname.Target), nil
		}
	}
	return "", nil
}

// LookupNS returns the nameservers host is delegated to
func (c *DNSChecker) LookupNS(ctx context.Context, host string) ([]string, error) {
	resp, err := c.query(ctx, host, dns.TypeNS)
	if err != nil {
		return nil, err
	}
	var servers []string
	for _, rr := range resp.Answer {
		if ns, ok := rr.(*dns.NS); ok {
			servers = append(servers, canonicalName(ns.Ns))
		}
	}
	return servers, nil
}

// CheckCNAME verifies host is a CNAME for expected
func (c *DNSChecker) CheckCNAME(ctx context.Context, host, expected string) (*DNSCheckResult, error) {
	result := &DNSCheckResult{
		Expected:  canonicalName(expected),
		CheckedAt: time.Now(),
	}

	found, err := c.LookupCNAME(ctx, host)
	if err != nil {
		return nil, err
	}
	result.Found = found

	switch {
	case found == "":
		result.Message = fmt.Sprintf("No CNAME record found for %s", host)
	case found != result.Expected:
		result.Message = fmt.Sprintf("CNAME for %s points to %s, expected %s", host, found, result.Expected)
	default:
		result.Verified = true
		result.Message = "CNAME record verified"
	}

	log.Debug().
		Str("host", host).
		Str("found", found).
		Bool("verified", result.Verified).
		Msg("CNAME check completed")

	return result, nil
}

// CheckNameservers verifies host is delegated to every expected nameserver
func (c *DNSChecker) CheckNameservers(ctx context.Context, host string, expected []string) (*DNSCheckResult, error) {
	result := &DNSCheckResult{
		Expected:  strings.Join(expected, ", "),
		CheckedAt: time.Now(),
	}

	found, err := c.LookupNS(ctx, host)
	if err != nil {
		return nil, err
	}
	result.Found = strings.Join(found, ", ")

	present := make(map[string]struct{}, len(found))
	for _, ns := range found {
		present[ns] = struct{}{}
	}

	var missing []string
	for _, ns := range expected {
		if _, ok := present[canonicalName(ns)]; !ok {
			missing = append(missing, ns)
		}
	}

	if len(missing) == 0 && len(expected) > 0 {
		result.Verified = true
		result.Message = "Nameserver delegation verified"
	} else {
		result.Message = fmt.Sprintf("Nameservers for %s are missing %s", host, strings.Join(missing, ", "))
	}

	log.Debug().
		Str("host", host).
		Strs("found", found).
		Bool("verified", result.Verified).
		Msg("NS check completed")

	return result, nil
}

func canonicalName(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".")
}
