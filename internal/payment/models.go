package payment

import (
	"fmt"
	"math/rand"
	"time"
)

// OrderStatus is the payment order lifecycle state.
type OrderStatus int

const (
	OrderPending  OrderStatus = 1
	OrderPaid     OrderStatus = 2
	OrderClosed   OrderStatus = 3
	OrderRefunded OrderStatus = 4
)

func (s OrderStatus) IsValid() bool {
	return s >= OrderPending && s <= OrderRefunded
}

// Order is a payment order opened for one approved registration.
type Order struct {
	ID             int64       `json:"id"`
	OrderNo        string      `json:"orderNo"`
	RegistrationID int64       `json:"registrationId"`
	UserID         int64       `json:"userId"`
	Amount         float64     `json:"amount"`
	Status         OrderStatus `json:"status"`
	PaymentMethod  string      `json:"paymentMethod,omitempty"`
	TransactionID  string      `json:"transactionId,omitempty"`
	ExpireTime     time.Time   `json:"expireTime"`
	PayTime        *time.Time  `json:"payTime,omitempty"`
	RefundTime     *time.Time  `json:"refundTime,omitempty"`
	CreatedAt      time.Time   `json:"createTime"`
	UpdatedAt      time.Time   `json:"updateTime"`
}

// Expired reports whether a pending order can no longer be paid.
func (o *Order) Expired(now time.Time) bool {
	return !now.Before(o.ExpireTime)
}

// Active reports whether the order still binds its registration. A
// closed or refunded order is history; the registration may open a
// fresh one.
func (o *Order) Active() bool {
	return o.Status == OrderPending || o.Status == OrderPaid
}

// NewOrderNo builds an order number: "PO", the creation second, and six
// random digits.
func NewOrderNo(now time.Time) string {
	return fmt.Sprintf("PO%s%06d", now.Format("20060102150405"), rand.Intn(1000000))
}

// NewTransactionID mimics an upstream payment gateway reference.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("MOCK_%d_%04d", now.UnixMilli(), rand.Intn(10000))
}

// NewTicketNo builds an admission ticket number from the exam and the
// issue date, with five random digits for uniqueness.
func NewTicketNo(examID int64, now time.Time) string {
	return fmt.Sprintf("%04d%s%05d", examID, now.Format("20060102"), rand.Intn(100000))
}

// Filter narrows order listings.
type Filter struct {
	UserID int64
	Status OrderStatus // zero means any
}

// Page is a window of orders with the total match count.
type Page struct {
	Records []*Order `json:"records"`
	Total   int64    `json:"total"`
	Current int      `json:"current"`
	Size    int      `json:"size"`
}

// TrendPoint is one day of settled payments for the dashboard.
type TrendPoint struct {
	Date   string  `json:"date"`
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// Stats aggregates order counts and the revenue collected.
type Stats struct {
	TotalCount    int64   `json:"totalCount"`
	PendingCount  int64   `json:"pendingCount"`
	PaidCount     int64   `json:"paidCount"`
	ClosedCount   int64   `json:"closedCount"`
	RefundedCount int64   `json:"refundedCount"`
	TotalAmount   float64 `json:"totalAmount"`
}
