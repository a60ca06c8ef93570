package models

import "time"

// MembershipStatusActive статус действующего членства.
const MembershipStatusActive = "active"

// Канонический словарь тарифов. Историческое именование
// observer/member/inner-circle осталось только в маркетинговых текстах
// и в хранилище не используется.
var (
	ValidMembershipTiers    = []string{"free", "seeker", "siren"}
	ValidMembershipStatuses = []string{"active", "cancelled", "expired"}
)

// Membership представляет членство клиента.
// Инвариант: у пользователя не более одного активного членства,
// поле users.membership_tier зеркалирует тариф активного членства
// и пересчитывается в той же транзакции, что и любая запись членства.
type Membership struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	Tier      string     `json:"tier"`   // free, seeker или siren
	Status    string     `json:"status"` // active, cancelled или expired
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MembershipWithOwner — членство вместе с идентификационными полями владельца.
type MembershipWithOwner struct {
	Membership
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}
