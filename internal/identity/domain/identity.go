// Package domain defines the portal's credential records: customers and
// employees. Records are created on registration and never mutated or
// deleted by the portal.
package domain

import "time"

// Role distinguishes the two principal kinds.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

// Customer is a registered banking customer. Email, IDNumber, and
// AccountNumber are each unique across customers.
type Customer struct {
	ID            string
	FullName      string
	Email         string
	IDNumber      string
	AccountNumber string
	PasswordHash  string
	CreatedAt     time.Time
}

// Employee is a portal staff member who reviews payments. Email is unique
// across employees.
type Employee struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
