package entity

import "time"

// PrizeAward - приз, выданный пользователю по итогам конкурса.
// Создаётся только при распределении призов и больше не изменяется.
type PrizeAward struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContestID   uint      `gorm:"not null;uniqueIndex:idx_prize_awards_contest_rank" json:"contest_id"`
	Rank        int       `gorm:"not null;uniqueIndex:idx_prize_awards_contest_rank" json:"rank"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	DateWon     time.Time `gorm:"not null" json:"date_won"`
}

// TableName определяет имя таблицы для GORM
func (PrizeAward) TableName() string {
	return "prize_awards"
}

// PrizeWinner - победитель, которому выдан приз
type PrizeWinner struct {
	UserID           uint   `json:"user_id"`
	Username         string `json:"username"`
	Email            string `json:"-"`
	Rank             int    `json:"rank"`
	Score            int    `json:"score"`
	PrizeAmount      int64  `json:"prize_amount"`
	PrizeDescription string `json:"prize_description"`
}

// PrizeWonEntry - приз в профиле пользователя
type PrizeWonEntry struct {
	ContestID    uint      `json:"contest_id"`
	ContestTitle string    `json:"contest_title"`
	Rank         int       `json:"rank"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	DateWon      time.Time `json:"date_won"`
}
