package store

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a referenced record does not exist
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert or update violates a uniqueness constraint
var ErrConflict = errors.New("record already exists")

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents one account. UserID is assigned once at creation and
// never regenerated.
type User struct {
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	MobileNumber string    `json:"mobile_number"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns "first last", falling back to the local part of the
// email when both names are blank.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// Trade represents one closed or open position. A trade with a nil
// CloseTime is open and never matches a close-time window filter.
type Trade struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	TradeNo      int64      `json:"trade_no"`
	Symbol       string     `json:"symbol"`
	Volume       float64    `json:"volume"`
	PriceOpen    float64    `json:"price_open"`
	PriceClose   float64    `json:"price_close"`
	Type         string     `json:"type"` // buy/sell
	TakeProfit   float64    `json:"take_profit"`
	StopLoss     float64    `json:"stop_loss"`
	ProfitAmount float64    `json:"profit_amount"`
	LossAmount   float64    `json:"loss_amount"`
	NetProfit    float64    `json:"net_profit"`
	Reason       string     `json:"reason"`
	Mistake      string     `json:"mistake"`
	OpenTime     *time.Time `json:"open_time"`
	CloseTime    *time.Time `json:"close_time"`
}

// Recalculate restores the net profit invariant after any mutation of
// the profit or loss amount.
func (t *Trade) Recalculate() {
	t.NetProfit = t.ProfitAmount - t.LossAmount
}

// LoginRecord is one login attempt, recorded after authentication
type LoginRecord struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	Status    string    `json:"status"` // success/failure
	Timestamp time.Time `json:"timestamp"`
}

// Announcement is a platform-wide notice shown to users for 24 hours
type Announcement struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// BrokerCredential links a user to one external broker account.
// (user_id, account) is unique.
type BrokerCredential struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	Account  string `json:"account"`
	Password string `json:"-"`
	Server   string `json:"server"`
	Days     int    `json:"days"`
}
