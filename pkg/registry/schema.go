package registry

// DomainRegistry is the on-disk list of sites searches may be restricted to.
type DomainRegistry struct {
	Version     string          `json:"version"`
	LastUpdated string          `json:"lastUpdated"`
	Domains     []TrustedDomain `json:"domains"`
}

type TrustedDomain struct {
	Domain   string `json:"domain"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

func (d TrustedDomain) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}
