package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pleb-devs/pleb-wallet-backend/lib/responses"
	"github.com/pleb-devs/pleb-wallet-backend/lib/service"
)

// InvoicesController : InvoicesController struct
type InvoicesController struct {
	svc *service.WalletService
}

func NewInvoicesController(svc *service.WalletService) *InvoicesController {
	return &InvoicesController{svc: svc}
}

// Invoices : List the ledger records of a user
func (controller *InvoicesController) Invoices(c echo.Context) error {
	userID, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	invoices, err := controller.svc.ListInvoices(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoices)
}
