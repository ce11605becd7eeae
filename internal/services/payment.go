package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/config"
)

// PaymentVerifier confirme qu'une référence de paiement a bien été payée.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, paymentID string) error
}

// PaymentIntent contient ce dont le client a besoin pour confirmer un paiement carte.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// StripeGateway crée et vérifie les PaymentIntents Stripe.
type StripeGateway struct {
	currency       string
	publishableKey string
	logger         *zap.Logger
}

func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{
		currency:       cfg.Currency,
		publishableKey: cfg.PublishableKey,
		logger:         logger,
	}
}

func (g *StripeGateway) PublishableKey() string { return g.publishableKey }

// CreateIntent débite amount, dans la plus petite unité de la devise.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, userID string) (*PaymentIntent, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("Amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"company": "EcoShop",
			"user_id": userID,
		},
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, apperrors.Upstream("stripe", err)
	}

	g.logger.Info("payment intent created",
		zap.String("payment_id", intent.ID),
		zap.Int64("amount", amount),
		zap.String("user_id", userID))
	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
	}, nil
}

func (g *StripeGateway) VerifyPayment(ctx context.Context, paymentID string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(paymentID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return apperrors.Validation(fmt.Sprintf("Unknown payment %s", paymentID))
		}
		return apperrors.Upstream("stripe", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return apperrors.Validation(fmt.Sprintf("Payment %s is %s", paymentID, intent.Status))
	}
	return nil
}
