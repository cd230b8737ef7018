// Package sect реализует секты: игровые кланы с вкладами
// и ежедневной перекличкой.
package sect

import "time"

// Должности в секте.
const (
	PositionFounder = "глава"
	PositionElder   = "старейшина"
	PositionMember  = "ученик"
)

// Sect представляет секту.
type Sect struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Description  *string   `db:"description"`
	FounderID    *int64    `db:"founder_id"`
	MemberCount  int       `db:"member_count"`
	Contribution int64     `db:"contribution"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
}

// Contribution — накопленный вклад игрока в секту.
type Contribution struct {
	ID                 int64     `db:"id"`
	UserID             int64     `db:"user_id"`
	SectID             int64     `db:"sect_id"`
	Contribution       int64     `db:"contribution"`
	LastContributionAt time.Time `db:"last_contribution_at"`
}
