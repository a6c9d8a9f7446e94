package api

import (
	"github.com/labstack/echo/v4"
)

// Response messages. Clients match on these strings.
const (
	msgStudentAdded   = "New Student Added"
	msgAddFailed      = "Failed to add student."
	msgStudentsFailed = "Failed to load students."
	msgFeeUpdated     = "Fee Updated"
	msgFeeFailed      = "Failed to add fee data."
	msgFeeLogsFailed  = "Failed to load fee logs."
	msgInvalidData    = "Invalid data"
)

func failure(message string) echo.Map {
	return echo.Map{"success": false, "message": message}
}

func invalid(fields map[string]string) echo.Map {
	return echo.Map{"success": false, "message": msgInvalidData, "errors": fields}
}

// invalidPayment keeps the "msg" key pay-fee clients read.
func invalidPayment(fields map[string]string) echo.Map {
	return echo.Map{"success": false, "msg": msgInvalidData, "errors": fields}
}
