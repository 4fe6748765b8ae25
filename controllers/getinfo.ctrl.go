package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pleb-devs/pleb-wallet-backend/lib/service"
)

// GetInfoController : GetInfoController struct
type GetInfoController struct {
	svc *service.WalletService
}

func NewGetInfoController(svc *service.WalletService) *GetInfoController {
	return &GetInfoController{svc: svc}
}

// GetInfo : GetInfo handler
func (controller *GetInfoController) GetInfo(c echo.Context) error {
	info, err := controller.svc.GetInfo(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}
