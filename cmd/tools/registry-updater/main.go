// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"symptom-checker/internal/common/validation"
	"symptom-checker/pkg/registry"
)

var registryPath string

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{listCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", "pkg/registry/endpoints.json", "Path to registry file")
	}

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Endpoint ID to update")
	field := updateCmd.String("field", "", "Field to update (path, method, displayName, description)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listEndpoints(); err != nil {
			fmt.Printf("Error listing endpoints: %v\n", err)
			os.Exit(1)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateEndpoint(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating endpoint: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated endpoint %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func listEndpoints() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return err
	}
	fmt.Printf("Registry %s (updated %s)\n", reg.Version, reg.LastUpdated)
	for _, ep := range reg.Endpoints {
		fmt.Printf("  %-18s %-5s %s\n", ep.ID, ep.Method, ep.Path)
	}
	return nil
}

func updateEndpoint(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range reg.Endpoints {
		if reg.Endpoints[i].ID != id {
			continue
		}
		found = true
		switch field {
		case "path":
			if !strings.HasPrefix(value, "/") {
				return fmt.Errorf("path must start with /")
			}
			reg.Endpoints[i].Path = value
		case "method":
			reg.Endpoints[i].Method = strings.ToUpper(value)
		case "displayName":
			reg.Endpoints[i].DisplayName = value
		case "description":
			reg.Endpoints[i].Description = value
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}

	if !found {
		return fmt.Errorf("endpoint with ID %s not found", id)
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	if err := checkEndpoints(reg); err != nil {
		return err
	}
	return saveRegistry(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	return checkEndpoints(reg)
}

// checkEndpoints enforces unique ids, a usable method and path, and
// compilable schemas.
func checkEndpoints(reg *registry.EndpointRegistry) error {
	ids := make(map[string]bool)
	for _, ep := range reg.Endpoints {
		if ep.ID == "" {
			return fmt.Errorf("endpoint missing required field: id")
		}
		if ids[ep.ID] {
			return fmt.Errorf("duplicate endpoint ID: %s", ep.ID)
		}
		ids[ep.ID] = true

		switch ep.Method {
		case http.MethodGet, http.MethodPost:
		default:
			return fmt.Errorf("endpoint %s: unsupported method %q", ep.ID, ep.Method)
		}
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("endpoint %s: path must start with /", ep.ID)
		}

		for name, schema := range map[string]json.RawMessage{
			"requestSchema":  ep.RequestSchema,
			"responseSchema": ep.ResponseSchema,
		} {
			if len(schema) == 0 {
				continue
			}
			if _, err := validation.Compile(schema); err != nil {
				return fmt.Errorf("endpoint %s: invalid %s: %w", ep.ID, name, err)
			}
		}
	}
	return nil
}

func saveRegistry(reg *registry.EndpointRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func help() {
	fmt.Println("Usage: registry-updater <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  list      List the inference endpoints")
	fmt.Println("  update    Update a field of an endpoint")
	fmt.Println("  validate  Validate the registry file")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nUse \"registry-updater <command> -h\" for more information about a command.")
}
