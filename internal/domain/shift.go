package domain

import "time"

type ShiftStatus string

const (
	ShiftActive    ShiftStatus = "active"
	ShiftCompleted ShiftStatus = "completed"
)

type Shift struct {
	ID              int64       `json:"id"`
	CashierID       int64       `json:"cashier_id"`
	CashierUsername string      `json:"cashier_username"`
	CashInAmount    float64     `json:"cash_in_amount"`
	CashInTime      time.Time   `json:"cash_in_time"`
	CashOutAmount   *float64    `json:"cash_out_amount,omitempty"`
	CashOutTime     *time.Time  `json:"cash_out_time,omitempty"`
	Status          ShiftStatus `json:"status"`
	ShiftDate       string      `json:"shift_date"`
}

type UserRole string

const (
	RoleCashier UserRole = "cashier"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID           int64    `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
}
