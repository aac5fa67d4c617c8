package domain

import "time"

type User struct {
	ID        int64     `db:"id" json:"id"`
	TgID      *int64    `db:"tg_id" json:"tg_id,omitempty"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"first_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
