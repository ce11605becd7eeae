package services

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/config"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/utils"
)

// InvoiceService imprime les factures de commande en PDF.
type InvoiceService struct {
	orders   *OrderService
	renderer utils.PDFRenderer
	cfg      config.InvoiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewInvoiceService(orders *OrderService, renderer utils.PDFRenderer, cfg config.InvoiceConfig, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		orders:   orders,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HTML rend la page de facture. Le QR SEPA n'est ajouté que si un IBAN est configuré.
func (s *InvoiceService) HTML(ctx context.Context, orderID string, caller *models.User) (string, error) {
	view, err := s.orders.Get(ctx, orderID, caller)
	if err != nil {
		return "", err
	}

	inv := &utils.Invoice{
		Order:       view.Order,
		Beneficiary: s.cfg.Beneficiary,
		IBAN:        s.cfg.IBAN,
		IssuedAt:    s.now(),
	}
	if view.User != nil {
		inv.Customer = *view.User
	}
	if s.cfg.IBAN != "" {
		qr, err := utils.GenerateSepaQR(s.cfg.IBAN, s.cfg.BIC, s.cfg.Beneficiary, "Order "+orderID, view.TotalPrice)
		if err != nil {
			s.logger.Warn("invoice qr code not generated", zap.String("order_id", orderID), zap.Error(err))
		} else {
			inv.QRCode = template.URL(qr)
		}
	}

	html, err := utils.RenderInvoiceHTML(inv)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return html, nil
}

// PDF rend la facture et l'imprime via le renderer configuré.
func (s *InvoiceService) PDF(ctx context.Context, orderID string, caller *models.User) ([]byte, error) {
	html, err := s.HTML(ctx, orderID, caller)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, apperrors.Upstream("pdf renderer", fmt.Errorf("invoice %s: %w", orderID, err))
	}
	return pdf, nil
}
