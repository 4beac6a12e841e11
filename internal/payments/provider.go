package payments

import "context"

type PaymentProvider interface {
	Name() string

	// CreatePayment returns the link the payer opens to pay amount rupees.
	CreatePayment(ctx context.Context, teamName string, amount int) (payURL string, err error)
}

// Environment is what the presentation layer knows about the payer's device.
type Environment struct {
	IsMobileLike bool
}

type Mode string

const (
	// ModeRedirect opens the payment link directly in a UPI app.
	ModeRedirect Mode = "redirect"
	// ModeQR shows the link as a QR code to scan from a phone.
	ModeQR Mode = "qr"
)

type Instructions struct {
	Mode   Mode   `json:"mode"`
	Link   string `json:"link"`
	Amount int    `json:"amount"`
}

// Instruct builds the payment link for the team and picks how to present it.
func Instruct(ctx context.Context, p PaymentProvider, env Environment, teamName string, amount int) (Instructions, error) {
	link, err := p.CreatePayment(ctx, teamName, amount)
	if err != nil {
		return Instructions{}, err
	}
	return Instructions{Mode: ModeFor(env), Link: link, Amount: amount}, nil
}

func ModeFor(env Environment) Mode {
	if env.IsMobileLike {
		return ModeRedirect
	}
	return ModeQR
}
