// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TemplateRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Lookup finds the template for a notification type and role side.
// A role-less template matches any role.
func (r *TemplateRegistry) Lookup(notificationType, role string) (*Template, error) {
	var fallback *Template
	for i := range r.Templates {
		t := &r.Templates[i]
		if t.NotificationType != notificationType {
			continue
		}
		if t.Role == role {
			return t, nil
		}
		if t.Role == "" {
			fallback = t
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("no template for type %q role %q", notificationType, role)
}

// Render substitutes {{key}} placeholders; unknown placeholders are
// stripped rather than left in the output.
func Render(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if i, ok := v.(int64); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
