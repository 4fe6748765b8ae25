package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pleb-devs/pleb-wallet-backend/lib/responses"
	"github.com/pleb-devs/pleb-wallet-backend/lib/service"
)

// AddInvoiceController : Add invoice controller struct
type AddInvoiceController struct {
	svc *service.WalletService
}

func NewAddInvoiceController(svc *service.WalletService) *AddInvoiceController {
	return &AddInvoiceController{svc: svc}
}

type AddInvoiceRequestBody struct {
	Value  int64  `json:"value" validate:"required,gt=0"`
	Memo   string `json:"memo"`
	UserID int64  `json:"user_id"`
}

type AddInvoiceResponseBody struct {
	PaymentRequest string `json:"payment_request"`
	Value          int64  `json:"value"`
	Memo           string `json:"memo"`
}

// AddInvoice : Add invoice Controller
func (controller *AddInvoiceController) AddInvoice(c echo.Context) error {
	body := AddInvoiceRequestBody{}

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load addinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid addinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	invoice, err := controller.svc.AddIncomingInvoice(c.Request().Context(), body.UserID, body.Value, body.Memo)
	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			c.Logger().Errorf("Add invoice node call failed user_id:%d %v", body.UserID, err)
			return c.JSON(responses.NodeUnavailableError.HttpStatusCode, responses.NodeUnavailableError)
		}
		return err
	}

	return c.JSON(http.StatusOK, &AddInvoiceResponseBody{
		PaymentRequest: invoice.PaymentRequest,
		Value:          invoice.Value,
		Memo:           invoice.Memo,
	})
}
