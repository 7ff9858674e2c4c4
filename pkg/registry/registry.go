package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultDomains is used when no registry file is configured.
var DefaultDomains = []string{
	"who.int",
	"opas.org.br",
	"fiocruz.br",
	"saude.gov.br",
	"bvs.saude.gov.br",
	"www.gov.br/anvisa",
	"www.gov.br/ans",
	"inca.gov.br",
	"einstein.br",
	"hcor.com.br",
	"hcfmusp.org.br",
	"hospitaloswaldocruz.org.br",
	"drauziovarella.uol.com.br",
}

// domainPattern accepts a host with at least one dot and an optional path,
// the same shape a "site:" operator accepts.
var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+(/[a-z0-9._~\-/]*)?$`)

func LoadRegistry(path string) (*DomainRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg DomainRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return &reg, nil
}

// Validate rejects malformed or duplicate entries.
func (r *DomainRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Domains))
	for i, d := range r.Domains {
		normalized := NormalizeDomain(d.Domain)
		if !IsValidDomain(normalized) {
			return fmt.Errorf("domains[%d]: %q is not a valid domain", i, d.Domain)
		}
		if seen[normalized] {
			return fmt.Errorf("domains[%d]: %q is listed twice", i, d.Domain)
		}
		seen[normalized] = true
	}
	return nil
}

// Enabled returns the normalized enabled domains in file order.
func (r *DomainRegistry) Enabled() []string {
	out := make([]string, 0, len(r.Domains))
	for _, d := range r.Domains {
		if d.IsEnabled() {
			out = append(out, NormalizeDomain(d.Domain))
		}
	}
	return out
}

// TrustedDomains loads the registry at path, or returns DefaultDomains when
// path is empty.
func TrustedDomains(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultDomains...), nil
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	domains := reg.Enabled()
	if len(domains) == 0 {
		return nil, fmt.Errorf("registry %s has no enabled domains", path)
	}
	return domains, nil
}

// NormalizeDomain lowercases d and strips schemes, "site:" prefixes,
// surrounding quotes and trailing slashes.
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.Trim(d, "\"'`")
	d = strings.TrimPrefix(d, "site:")
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	return strings.TrimRight(d, "/")
}

func IsValidDomain(d string) bool {
	return domainPattern.MatchString(d)
}
