// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"wallet-workers/pkg/registry"
)

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	// Add command flags
	idAdd := addCmd.String("id", "", "Template ID (e.g., transaction-recipient)")
	notificationType := addCmd.String("type", "", "Notification type (transaction, payment_request, security, system)")
	role := addCmd.String("role", "", "Role side (sender, recipient, or empty for both)")
	title := addCmd.String("title", "", "Title template")
	body := addCmd.String("body", "", "Body template")
	gradient := addCmd.String("gradient", "", "Card gradient name")
	displayLocation := addCmd.String("displayLocation", "toast", "Display location (suggested_actions, toast, both)")
	dismissible := addCmd.Bool("dismissible", true, "Whether the notification can be dismissed")
	defaultBase := addCmd.String("defaultBase", "medium", "Default priority base (high, medium, low)")
	addCmd.StringVar(&registryPath, "path", "configs/notification-registry.json", "Path to registry file")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Template ID to update")
	field := updateCmd.String("field", "", "Field to update (title, body, gradient, displayLocation, dismissible, defaultBase)")
	value := updateCmd.String("value", "", "New value for the field")
	updateCmd.StringVar(&registryPath, "path", "configs/notification-registry.json", "Path to registry file")

	// Validate command flags
	validateCmd.StringVar(&registryPath, "path", "configs/notification-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *notificationType == "" || *title == "" || *body == "" {
			fmt.Println("Error: id, type, title, and body are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		template := registry.Template{
			ID:               *idAdd,
			NotificationType: *notificationType,
			Role:             *role,
			Title:            *title,
			Body:             *body,
			Gradient:         *gradient,
			DisplayLocation:  *displayLocation,
			Dismissible:      *dismissible,
			DefaultBase:      *defaultBase,
		}
		if err := addTemplate(&template); err != nil {
			fmt.Printf("Error adding template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added template: %s\n", *idAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateTemplate(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated template %s, field %s to %s\n", *idUpdate, *field, *value)

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

func addTemplate(template *registry.Template) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			reg = &registry.TemplateRegistry{
				Version:     "1.0.0",
				LastUpdated: time.Now().Format(time.RFC3339),
				Templates:   []registry.Template{},
			}
		} else {
			return fmt.Errorf("failed to load registry: %w", err)
		}
	}

	for _, existing := range reg.Templates {
		if existing.ID == template.ID {
			return fmt.Errorf("template with ID %s already exists", template.ID)
		}
	}

	reg.Templates = append(reg.Templates, *template)
	reg.LastUpdated = time.Now().Format(time.RFC3339)

	return saveRegistry(reg, registryPath)
}

func updateTemplate(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range reg.Templates {
		if reg.Templates[i].ID == id {
			found = true
			switch field {
			case "title":
				reg.Templates[i].Title = value
			case "body":
				reg.Templates[i].Body = value
			case "gradient":
				reg.Templates[i].Gradient = value
			case "displayLocation":
				reg.Templates[i].DisplayLocation = value
			case "defaultBase":
				reg.Templates[i].DefaultBase = value
			case "dismissible":
				dismissible, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("invalid dismissible value: %w", err)
				}
				reg.Templates[i].Dismissible = dismissible
			default:
				return fmt.Errorf("unknown field: %s", field)
			}
			break
		}
	}

	if !found {
		return fmt.Errorf("template with ID %s not found", id)
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if len(reg.Templates) == 0 {
		return fmt.Errorf("registry contains no templates")
	}

	validBases := map[string]bool{"high": true, "medium": true, "low": true}
	validLocations := map[string]bool{"suggested_actions": true, "toast": true, "both": true}

	ids := make(map[string]bool)
	seen := make(map[string]bool)
	for _, template := range reg.Templates {
		if template.ID == "" {
			return fmt.Errorf("template missing required field: ID")
		}
		if ids[template.ID] {
			return fmt.Errorf("duplicate template ID: %s", template.ID)
		}
		ids[template.ID] = true

		if template.NotificationType == "" {
			return fmt.Errorf("template %s missing required field: NotificationType", template.ID)
		}
		if template.Title == "" {
			return fmt.Errorf("template %s missing required field: Title", template.ID)
		}
		key := template.NotificationType + "/" + template.Role
		if seen[key] {
			return fmt.Errorf("duplicate template for type %s role %q", template.NotificationType, template.Role)
		}
		seen[key] = true

		if !validBases[template.DefaultBase] {
			return fmt.Errorf("template %s has invalid defaultBase %q", template.ID, template.DefaultBase)
		}
		if !validLocations[template.DisplayLocation] {
			return fmt.Errorf("template %s has invalid displayLocation %q", template.ID, template.DisplayLocation)
		}
	}

	fmt.Printf("Registry validation passed. Found %d templates.\n", len(reg.Templates))
	return nil
}

func saveRegistry(reg *registry.TemplateRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
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
  add      Add a new notification template to the registry
  update   Update an existing template's field
  validate Validate the registry file
  help     Show this help message

Examples:
  registry-updater add -id transaction-recipient -type transaction -role recipient -title "You received {{amount}} sats" -body "{{memo}}"
  registry-updater update -id transaction-recipient -field gradient -value green
  registry-updater validate -path configs/notification-registry.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}
