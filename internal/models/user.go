// internal/models/user.go
package models

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	PushToken string `json:"pushToken,omitempty"`
}
