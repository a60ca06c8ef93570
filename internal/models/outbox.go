package models

import (
	"encoding/json"
	"time"
)

// KindScanCompleted — вид события о готовности результатов скана.
const KindScanCompleted = "scan.completed"

// OutboxEvent — запись в таблице notification_outbox. Добавляется в той же
// транзакции, что и породившее его изменение состояния, и публикуется
// в очередь отдельным диспетчером.
type OutboxEvent struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// ScanReadyEvent — полезная нагрузка события scan.completed.
type ScanReadyEvent struct {
	ScanID    int       `json:"scan_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	ScanDate  time.Time `json:"scan_date"`
}
