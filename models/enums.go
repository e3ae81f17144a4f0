package models

type MovementKind string

const (
	MovementKindStockIn    MovementKind = "stock_in"
	MovementKindSale       MovementKind = "sale"
	MovementKindAdjustment MovementKind = "adjustment"
)

func (k MovementKind) IsValid() bool {
	switch k {
	case MovementKindStockIn, MovementKindSale, MovementKindAdjustment:
		return true
	}
	return false
}

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleCashier UserRole = "cashier"
	UserRoleManager UserRole = "manager"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleCashier, UserRoleManager:
		return true
	}
	return false
}

const DefaultPaymentMethod = "cash"
