package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_SQL(t *testing.T) {
	var b Builder
	b.Set("status", "confirmed")
	b.Set("notes", "bring water")

	query, args := b.SQL("bookings", 15, "*")

	assert.Equal(t,
		"UPDATE bookings SET status = $1, notes = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3 RETURNING *",
		query)
	assert.Equal(t, []any{"confirmed", "bring water", 15}, args)
}

func TestBuilder_SQLWithoutReturning(t *testing.T) {
	var b Builder
	b.Set("status", "read")

	query, args := b.SQL("contact_submissions", 3, "")

	assert.Equal(t,
		"UPDATE contact_submissions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		query)
	assert.Equal(t, []any{"read", 3}, args)
}

func TestBuilder_Empty(t *testing.T) {
	var b Builder
	assert.True(t, b.Empty())

	b.Set("tier", "seeker")
	assert.False(t, b.Empty())
}
