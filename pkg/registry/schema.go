// pkg/registry/schema.go
package registry

// TemplateRegistry is the on-disk catalog of notification templates,
// one per notification type and role side.
type TemplateRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Templates   []Template `json:"templates"`
}

type Template struct {
	ID               string `json:"id"`
	NotificationType string `json:"notificationType"`
	Role             string `json:"role,omitempty"` // sender, recipient or empty for both
	Title            string `json:"title"`
	Body             string `json:"body"`
	Gradient         string `json:"gradient,omitempty"`
	DisplayLocation  string `json:"displayLocation"`
	Dismissible      bool   `json:"dismissible"`
	DefaultBase      string `json:"defaultBase"`
}
