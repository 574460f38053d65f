package email

import (
	"fmt"
	"html"
	"strings"
)

type OrderItem struct {
	Name     string
	Quantity int
	Price    int64
}

type OrderSummary struct {
	OrderCode       string
	RecipientName   string
	ShippingAddress string
	PaymentMethod   string
	Items           []OrderItem
	Total           int64
}

type StatusUpdate struct {
	OrderCode   string
	Status      string
	Description string
	Location    string
}

type PaymentReceipt struct {
	OrderCode     string
	TransactionID string
	Total         int64
}

var statusLabels = map[string]string{
	"PENDING":    "Pending",
	"CONFIRMED":  "Confirmed",
	"PROCESSING": "Processing",
	"SHIPPING":   "Shipping",
	"DELIVERED":  "Delivered",
	"COMPLETED":  "Completed",
	"CANCELLED":  "Cancelled",
}

func statusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

func BuildOrderConfirmationBody(o OrderSummary) string {
	var rows strings.Builder
	for _, item := range o.Items {
		fmt.Fprintf(&rows, `<tr>
				<td style="padding: 10px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatVND(item.Price),
			FormatVND(item.Price*int64(item.Quantity)),
		)
	}

	content := fmt.Sprintf(`<p style="margin-top: 0;">Hi %s, thank you for your order.</p>
		%s
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 10px; text-align: left;">Product</th>
					<th style="padding: 10px; text-align: center;">Qty</th>
					<th style="padding: 10px; text-align: right;">Price</th>
					<th style="padding: 10px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>
		<p style="text-align: right; font-size: 20px; font-weight: bold;">Total: %s</p>
		<p>Payment method: %s<br>Ship to: %s</p>`,
		html.EscapeString(o.RecipientName),
		codeBox(o.OrderCode),
		rows.String(),
		FormatVND(o.Total),
		html.EscapeString(o.PaymentMethod),
		html.EscapeString(o.ShippingAddress),
	)
	return layout("Order received", content)
}

func BuildStatusUpdateBody(u StatusUpdate) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p style="margin-top: 0;">Your order status changed to <strong>%s</strong>.</p>%s`,
		statusLabel(u.Status), codeBox(u.OrderCode))
	if u.Description != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(u.Description))
	}
	if u.Location != "" {
		fmt.Fprintf(&b, `<p style="color: #666;">Location: %s</p>`, html.EscapeString(u.Location))
	}
	return layout("Order update", b.String())
}

func BuildPaymentReceivedBody(p PaymentReceipt) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">We received your PayPal payment of <strong>%s</strong>.</p>%s
		<p style="color: #666;">Transaction: %s</p>`,
		FormatVND(p.Total), codeBox(p.OrderCode), html.EscapeString(p.TransactionID))
	return layout("Payment received", content)
}

func codeBox(code string) string {
	return fmt.Sprintf(`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order code</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>`, html.EscapeString(code))
}

func layout(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #1a73e8; padding: 24px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 22px;">%s</h1>
	</div>
	<div style="background: #fff; padding: 24px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">This is an automated message from Phone Store. Please do not reply.</p>
	</div>
</body>
</html>`, html.EscapeString(title), content)
}

// FormatVND renders 2000000 as "2.000.000 ₫".
func FormatVND(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + " ₫"
}
