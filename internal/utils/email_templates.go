package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ecoshop_back_end/internal/models"
)

const (
	SubjectPaymentSuccess  = "EcoShop - Payment Successful"
	SubjectOrderCancelled  = "EcoShop - Order Cancelled"
	subjectStatusShipped   = "EcoShop - Your Order Has Shipped"
	subjectStatusDelivered = "EcoShop - Your Order Was Delivered"
	subjectStatusDefault   = "EcoShop - Order Update"
)

const emailDateLayout = "Jan 2, 2006"

// formatAmount affiche un montant au plus court, 200 en "200" et 99.5 en "99.5".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func itemsList(items []models.OrderItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s x %d: ₹%s",
			item.Name, item.Quantity, formatAmount(item.Price*float64(item.Quantity))))
	}
	return strings.Join(lines, "\n")
}

// PaymentSuccessEmail est envoyé une fois la commande passée.
func PaymentSuccessEmail(order *models.Order, now time.Time) string {
	s := order.ShippingInfo
	return fmt.Sprintf(`
Dear Customer,

Thank you for your purchase at EcoShop!

We're pleased to confirm that your payment of ₹%.2f has been successfully processed.

Order Details:
--------------
Order ID: %s
Payment ID: %s
Date: %s

Items Purchased:
%s

Total Amount: ₹%.2f

Shipping Address:
%s
%s, %s %s
%s

Your order is now being processed and will be shipped soon. You can track your order status by logging into your account.

If you have any questions about your order, please contact our customer service team.

Thank you for shopping with EcoShop!

Best regards,
The EcoShop Team
`, order.TotalPrice, order.ID, order.PaymentInfo.ID, now.Format(emailDateLayout),
		itemsList(order.OrderItems), order.TotalPrice,
		s.Address, s.City, s.State, s.PinCode, s.Country)
}

// OrderCancellationEmail confirme une annulation demandée par le client.
func OrderCancellationEmail(order *models.Order, now time.Time) string {
	return fmt.Sprintf(`
Dear Customer,

Your order has been cancelled as requested.

Cancelled Order Details:
-----------------------
Order ID: %s
Order Date: %s
Cancellation Date: %s

Cancelled Items:
%s

Refund Amount: ₹%.2f

Your payment will be refunded to your original payment method within 5-7 business days, depending on your bank's processing time.

If you cancelled this order by mistake or would like to place a new order, please visit our website.

If you have any questions about your cancellation or refund, please contact our customer service team.

We hope to serve you again soon.

Best regards,
The EcoShop Team
`, order.ID, order.CreatedAt.Format(emailDateLayout), now.Format(emailDateLayout),
		itemsList(order.OrderItems), order.TotalPrice)
}

// StatusUpdateSubject retourne l'objet de l'email de changement de statut.
func StatusUpdateSubject(status models.OrderStatus) string {
	switch status {
	case models.StatusShipped:
		return subjectStatusShipped
	case models.StatusDelivered:
		return subjectStatusDelivered
	default:
		return subjectStatusDefault
	}
}

func statusMessage(status models.OrderStatus) string {
	switch status {
	case models.StatusShipped:
		return "Good news! Your order has shipped and is on its way to you."
	case models.StatusDelivered:
		return "Your order has been delivered. We hope you enjoy your purchase!"
	default:
		return "The status of your order has been updated."
	}
}

// StatusUpdateEmail prévient le client qu'un admin a fait avancer la commande.
func StatusUpdateEmail(order *models.Order) string {
	return fmt.Sprintf(`
Dear Customer,

%s

Order ID: %s
Status: %s

Items:
%s

Total Amount: ₹%.2f

Best regards,
The EcoShop Team
`, statusMessage(order.OrderStatus), order.ID, order.OrderStatus, itemsList(order.OrderItems), order.TotalPrice)
}
