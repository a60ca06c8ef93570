package models

import "time"

// ValidContactStatuses — допустимые статусы обращения.
var ValidContactStatuses = []string{"new", "read", "responded", "archived"}

// ContactSubmission представляет обращение через публичную контактную форму.
// Владельца не имеет, после создания доступно только администратору.
type ContactSubmission struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   *string   `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"` // new, read, responded или archived
	CreatedAt time.Time `json:"created_at"`
}
