package models

import "time"

// ValidScanStatuses — допустимые статусы скана.
// Статусы скана.
const (
	ScanStatusPending   = "pending"
	ScanStatusCompleted = "completed"
)

var ValidScanStatuses = []string{"pending", "in-progress", "completed"}

// Scan представляет отчет практика по энергетическому скану клиента.
type Scan struct {
	ID                int          `json:"id"`
	UserID            int          `json:"user_id"`
	ScanDate          time.Time    `json:"scan_date"`
	Findings          *string      `json:"findings"`
	Recommendations   *string      `json:"recommendations"`
	Status            string       `json:"status"` // pending, in-progress или completed
	Attachments       []Attachment `json:"attachments"`
	PractitionerNotes *string      `json:"practitioner_notes"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// ScanWithOwner — скан вместе с идентификационными полями владельца.
type ScanWithOwner struct {
	Scan
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// Attachment описывает загруженный к скану файл. Список вложений
// хранится JSONB-колонкой на строке скана.
type Attachment struct {
	Filename     string    `json:"filename"`     // Имя файла в блоб-хранилище
	OriginalName string    `json:"originalName"` // Имя файла при загрузке
	URL          string    `json:"url"`
	Type         string    `json:"type"` // MIME-тип
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
