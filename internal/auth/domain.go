package auth

import "time"

// TerminalKey is an API credential issued to a register terminal. The
// secret is stored bcrypt-hashed; presentation is `<id>.<secret>`.
type TerminalKey struct {
	ID         int64
	StoreID    int64
	EmployeeID int64
	KeyHash    string
	IsActive   bool
	CreatedAt  time.Time

	EmployeeName string
	EmployeeRole string
}

// Permission names consumed by the core.
const (
	PermProcessSale   = "sale.process"
	PermRedeemPoints  = "loyalty.redeem"
	PermManageStore   = "store.manage"
	PermDeleteSale    = "sale.delete"
	PermViewCustomers = "customer.view"
	PermAdjustStock   = "stock.adjust"
)

// permissionsByRole is the role grant table supplied by the
// authorization collaborator. Owners pass every check in Actor.Can.
var permissionsByRole = map[string][]string{
	"cashier": {PermProcessSale, PermViewCustomers},
	"manager": {PermProcessSale, PermRedeemPoints, PermViewCustomers, PermAdjustStock},
}
