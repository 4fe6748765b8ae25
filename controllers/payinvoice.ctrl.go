package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pleb-devs/pleb-wallet-backend/lib/responses"
	"github.com/pleb-devs/pleb-wallet-backend/lib/service"
)

// PayInvoiceController : Pay invoice controller struct
type PayInvoiceController struct {
	svc *service.WalletService
}

func NewPayInvoiceController(svc *service.WalletService) *PayInvoiceController {
	return &PayInvoiceController{svc: svc}
}

type PayInvoiceRequestBody struct {
	PaymentRequest string `json:"payment_request" validate:"required"`
}

type PayInvoiceResponseBody struct {
	PaymentRequest  string `json:"payment_request"`
	PaymentHash     string `json:"payment_hash"`
	PaymentPreimage string `json:"payment_preimage"`
}

// PayInvoice : Pay invoice Controller
func (controller *PayInvoiceController) PayInvoice(c echo.Context) error {
	body := PayInvoiceRequestBody{}

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load payinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid payinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	paymentRequest := strings.ToLower(body.PaymentRequest)
	result, err := controller.svc.PayInvoice(c.Request().Context(), paymentRequest)
	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			c.Logger().Errorf("Payment failed payment_request:%s %v", paymentRequest, err)
			return c.JSON(responses.PaymentFailedError.HttpStatusCode, responses.PaymentFailedError)
		}
		return err
	}

	return c.JSON(http.StatusOK, &PayInvoiceResponseBody{
		PaymentRequest:  result.PaymentRequest,
		PaymentHash:     result.PaymentHashHex,
		PaymentPreimage: result.PreimageHex,
	})
}
