package payments

import (
	"fmt"

	"devthon-registration/internal/config"
	"devthon-registration/internal/payments/upi"
)

func NewProvider(cfg config.Config) (PaymentProvider, error) {
	switch cfg.PaymentProvider {
	case "upi":
		return upi.New(cfg.UPIVPA, cfg.UPIPayeeName, cfg.UPINote), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
