package services

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/infra"

	"github.com/sirupsen/logrus"
)

type Notifier struct {
	sender infra.MessageSender
	log    *logrus.Logger
}

func NewNotifier(sender infra.MessageSender, logger *logrus.Logger) *Notifier {
	return &Notifier{sender: sender, log: logger}
}

// NotifyOrder sends the order summary. Errors are logged and dropped; an
// unconfigured channel is a no-op.
func (n *Notifier) NotifyOrder(ctx context.Context, order *domain.Order) {
	if n == nil || n.sender == nil || !n.sender.Enabled() {
		return
	}
	if err := n.sender.SendMessage(ctx, FormatOrderSummary(order)); err != nil {
		n.log.WithField("order_id", order.ID).WithError(err).Warn("Order notification failed")
		return
	}
	n.log.WithField("order_id", order.ID).Info("Order notification sent")
}

func paymentLabel(o *domain.Order) string {
	if o.PaymentMethod == domain.PaymentQR {
		return "Paid by QR transfer"
	}
	return "Pay on delivery"
}

func FormatOrderSummary(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n", o.ID)
	fmt.Fprintf(&b, "Customer: %s\n", o.Customer.Name)
	fmt.Fprintf(&b, "Phone: %s\n", o.Customer.Phone)
	if o.Customer.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", o.Customer.Email)
	}
	fmt.Fprintf(&b, "Address: %s\n", o.Customer.Address)
	b.WriteString("\nItems:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s = %s\n", item.Name, item.Quantity, item.Price.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Delivery: %s\n", o.DeliveryFee.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n", o.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment: %s (%s)", paymentLabel(o), o.Status)
	return b.String()
}
