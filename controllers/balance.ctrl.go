package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pleb-devs/pleb-wallet-backend/lib/service"
)

// BalanceController : BalanceController struct
type BalanceController struct {
	svc *service.WalletService
}

func NewBalanceController(svc *service.WalletService) *BalanceController {
	return &BalanceController{svc: svc}
}

type BalanceResponse struct {
	WalletBalance  int64 `json:"wallet_balance"`
	ChannelBalance int64 `json:"channel_balance"`
}

// Balance : Balance Controller
func (controller *BalanceController) Balance(c echo.Context) error {
	ctx := c.Request().Context()

	walletBalance, err := controller.svc.WalletBalance(ctx)
	if err != nil {
		return err
	}
	channelBalance, err := controller.svc.ChannelBalance(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &BalanceResponse{
		WalletBalance:  walletBalance.TotalBalance,
		ChannelBalance: int64(channelBalance.LocalBalance.GetSat()),
	})
}
