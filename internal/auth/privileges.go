package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/Tobijimoh/trade-capture-system/pkg/response"
)

// Role is a back-office desk role carried in the JWT.
type Role string

const (
	RoleTrader       Role = "TRADER"
	RoleSales        Role = "SALES"
	RoleMiddleOffice Role = "MIDDLE_OFFICE"
	RoleSupport      Role = "SUPPORT"
)

// Operation is a trade lifecycle action gated by role.
type Operation string

const (
	OperationCreate    Operation = "CREATE"
	OperationAmend     Operation = "AMEND"
	OperationTerminate Operation = "TERMINATE"
	OperationCancel    Operation = "CANCEL"
	OperationView      Operation = "VIEW"
)

// Can reports whether the role is privileged for the operation. Traders can
// do everything, sales cannot unwind trades, middle office amends and views,
// support is read-only.
func Can(role Role, op Operation) bool {
	switch role {
	case RoleTrader:
		switch op {
		case OperationCreate, OperationAmend, OperationTerminate, OperationCancel, OperationView:
			return true
		}
	case RoleSales:
		switch op {
		case OperationCreate, OperationAmend, OperationView:
			return true
		}
	case RoleMiddleOffice:
		switch op {
		case OperationAmend, OperationView:
			return true
		}
	case RoleSupport:
		return op == OperationView
	}
	return false
}

// RequirePrivilege gates a route on the desk role in the request's JWT
// claims. Runs after the JWT middleware has populated the context.
func RequirePrivilege(op Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			c.Abort()
			return
		}

		role := GetRole(claims)
		if role == "" {
			response.Unauthorized(c, "Missing role in token")
			c.Abort()
			return
		}

		if !Can(role, op) {
			response.Forbidden(c, "Role "+string(role)+" is not permitted to "+string(op))
			c.Abort()
			return
		}

		c.Next()
	}
}
