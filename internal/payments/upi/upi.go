package upi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Provider builds upi://pay deep links for a fixed payee and note. Payment is
// confirmed later by an organizer against the transaction id the team enters.
type Provider struct {
	vpa   string
	payee string
	note  string
}

func New(vpa, payee, note string) *Provider {
	return &Provider{
		vpa:   strings.TrimSpace(vpa),
		payee: strings.TrimSpace(payee),
		note:  strings.TrimSpace(note),
	}
}

func (p *Provider) Name() string { return "upi" }

func (p *Provider) CreatePayment(ctx context.Context, _ string, amount int) (string, error) {
	if p.vpa == "" {
		return "", fmt.Errorf("upi: payee address is empty")
	}
	if amount <= 0 {
		return "", fmt.Errorf("upi: amount must be positive, got %d", amount)
	}

	// pa stays unencoded, several UPI apps reject %40 in the VPA.
	// Other values use %20 for spaces.
	q := []string{
		"pa=" + p.vpa,
		"pn=" + escape(p.payee),
		"am=" + strconv.Itoa(amount),
		"cu=INR",
	}
	if p.note != "" {
		q = append(q, "tn="+escape(p.note))
	}
	return "upi://pay?" + strings.Join(q, "&"), nil
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
