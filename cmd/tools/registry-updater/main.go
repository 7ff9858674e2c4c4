package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	composequery "health-assistant/internal/workers/answer/compose-query"
	"health-assistant/pkg/registry"
)

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	queryCmd := flag.NewFlagSet("query", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, validateCmd, queryCmd} {
		fs.StringVar(&registryPath, "path", "configs/trusted_domains.json", "Path to registry file")
	}

	domainAdd := addCmd.String("domain", "", "Domain, optionally with a path (e.g., www.gov.br/anvisa)")
	name := addCmd.String("name", "", "Display name (e.g., Anvisa)")
	category := addCmd.String("category", "", "Category (government, research, hospital, media, international)")

	domainUpdate := updateCmd.String("domain", "", "Domain to update")
	field := updateCmd.String("field", "", "Field to update (name, category, enabled)")
	value := updateCmd.String("value", "", "New value for the field")

	question := queryCmd.String("q", "", "Question to compose against the enabled domains")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *domainAdd == "" || *name == "" || *category == "" {
			fmt.Println("Error: domain, name, and category are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		err := addDomain(registry.TrustedDomain{
			Domain:   registry.NormalizeDomain(*domainAdd),
			Name:     *name,
			Category: *category,
		})
		if err != nil {
			fmt.Printf("Error adding domain: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added domain: %s\n", registry.NormalizeDomain(*domainAdd))

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *domainUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: domain, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateDomain(*domainUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating domain: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated domain %s, field %s to %s\n", *domainUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "query":
		queryCmd.Parse(os.Args[2:])
		domains, err := registry.TrustedDomains(registryPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(composequery.Compose(*question, domains))

	case "help":
		fallthrough
	default:
		help()
	}
}

func addDomain(domain registry.TrustedDomain) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.DomainRegistry{Version: "1.0.0"}
	}

	for _, existing := range reg.Domains {
		if registry.NormalizeDomain(existing.Domain) == domain.Domain {
			return fmt.Errorf("domain %s already exists", domain.Domain)
		}
	}

	reg.Domains = append(reg.Domains, domain)
	if err := reg.Validate(); err != nil {
		return err
	}
	return saveRegistry(reg, registryPath)
}

func updateDomain(domain, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	target := registry.NormalizeDomain(domain)
	found := false
	for i := range reg.Domains {
		if registry.NormalizeDomain(reg.Domains[i].Domain) != target {
			continue
		}
		found = true
		switch field {
		case "name":
			reg.Domains[i].Name = value
		case "category":
			reg.Domains[i].Category = value
		case "enabled":
			enabled, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid enabled value: %w", err)
			}
			reg.Domains[i].Enabled = &enabled
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}

	if !found {
		return fmt.Errorf("domain %s not found", domain)
	}
	return saveRegistry(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	enabled := reg.Enabled()
	if len(enabled) == 0 {
		return fmt.Errorf("registry contains no enabled domains")
	}

	for _, d := range reg.Domains {
		if d.Name == "" {
			return fmt.Errorf("domain %s missing required field: Name", d.Domain)
		}
		if d.Category == "" {
			return fmt.Errorf("domain %s missing required field: Category", d.Domain)
		}
	}

	fmt.Printf("Registry validation passed. Found %d domains, %d enabled.\n", len(reg.Domains), len(enabled))
	return nil
}

func saveRegistry(reg *registry.DomainRegistry, path string) error {
	reg.LastUpdated = time.Now().Format("2006-01-02")

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a trusted domain
  update   Update a domain's name, category or enabled flag
  validate Validate the registry file
  query    Print the search query a question becomes with the enabled domains
  help     Show this help message

Examples:
  registry-updater add -domain www.gov.br/saude -name "Ministério da Saúde" -category government
  registry-updater update -domain hcor.com.br -field enabled -value false
  registry-updater validate -path configs/trusted_domains.json
  registry-updater query -q "O que é dengue?"

Use 'registry-updater <command> -h' for more information about a command.
`)
}
