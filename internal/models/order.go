package models

import (
	"time"
)

type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// Valid indique si s est un statut connu.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Les états terminaux n'acceptent plus de transition.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type ShippingInfo struct {
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Country string `json:"country" binding:"required"`
	PinCode string `json:"pinCode" binding:"required"`
	PhoneNo string `json:"phoneNo" binding:"required"`
}

type OrderItem struct {
	Product  string  `json:"product" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
	Price    float64 `json:"price" binding:"gte=0"`
	Image    string  `json:"image"`
}

type PaymentInfo struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

type Order struct {
	ID             string       `json:"_id"`
	ShippingInfo   ShippingInfo `json:"shippingInfo"`
	OrderItems     []OrderItem  `json:"orderItems"`
	PaymentInfo    PaymentInfo  `json:"paymentInfo"`
	ItemsPrice     float64      `json:"itemsPrice"`
	TaxPrice       float64      `json:"taxPrice"`
	ShippingPrice  float64      `json:"shippingPrice"`
	TotalPrice     float64      `json:"totalPrice"`
	OrderStatus    OrderStatus  `json:"orderStatus"`
	PaidAt         time.Time    `json:"paidAt"`
	DeliveredAt    *time.Time   `json:"deliveredAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	User           string       `json:"user"`
	StockCommitted bool         `json:"-"`
}

// Clone retourne une copie profonde de la commande.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.OrderItems = append([]OrderItem(nil), o.OrderItems...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		cp.DeliveredAt = &t
	}
	return &cp
}

// OrderOwner est la projection de l'utilisateur incluse dans le détail d'une commande.
type OrderOwner struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderView est une commande avec son propriétaire renseigné.
type OrderView struct {
	*Order
	User *OrderOwner `json:"user"`
}

// StatusEvent est publié à chaque changement de statut d'une commande.
type StatusEvent struct {
	OrderID   string      `json:"orderId"`
	UserID    string      `json:"userId"`
	Status    OrderStatus `json:"status"`
	ChangedAt time.Time   `json:"changedAt"`
}
