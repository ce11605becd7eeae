package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/metrics"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

// OrderNotifier envoie les emails client du cycle de vie d'une commande.
type OrderNotifier interface {
	PaymentSuccess(ctx context.Context, order *models.Order)
	OrderCancelled(ctx context.Context, order *models.Order)
	StatusChanged(ctx context.Context, order *models.Order)
}

// StatusPublisher diffuse les changements de statut aux abonnés en direct.
type StatusPublisher interface {
	Publish(ctx context.Context, ev models.StatusEvent)
}

// OrderInput est une nouvelle commande client. Un statut éventuel dans le payload est ignoré.
type OrderInput struct {
	ShippingInfo  models.ShippingInfo
	OrderItems    []models.OrderItem
	PaymentInfo   models.PaymentInfo
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	TotalPrice    float64
}

// OrderService pilote la machine à états des commandes :
//
//	Processing -> Shipped -> Delivered
//	Processing -> Delivered
//	Processing -> Cancelled
//
// Quitter Processing pour Shipped ou Delivered engage le stock. Le nouveau
// statut est d'abord réservé par une écriture conditionnelle, les requêtes
// concurrentes n'engagent donc le stock qu'une fois. Si une décrémentation
// échoue, celles déjà appliquées sont annulées et la réservation libérée.
type OrderService struct {
	orders    repository.OrderRepository
	users     repository.UserRepository
	inventory *InventoryService
	notifier  OrderNotifier
	events    StatusPublisher
	payments  PaymentVerifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService assemble le cycle de vie des commandes. events et payments peuvent être nil.
func NewOrderService(
	orders repository.OrderRepository,
	users repository.UserRepository,
	inventory *InventoryService,
	notifier OrderNotifier,
	events StatusPublisher,
	payments PaymentVerifier,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		users:     users,
		inventory: inventory,
		notifier:  notifier,
		events:    events,
		payments:  payments,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func validateOrder(in OrderInput) error {
	s := in.ShippingInfo
	for _, f := range []string{s.Address, s.City, s.State, s.Country, s.PinCode, s.PhoneNo} {
		if strings.TrimSpace(f) == "" {
			return apperrors.Validation("Please provide complete shipping info")
		}
	}
	if len(in.OrderItems) == 0 {
		return apperrors.Validation("Order must contain at least one item")
	}
	for _, item := range in.OrderItems {
		if item.Product == "" || item.Name == "" {
			return apperrors.Validation("Every order item needs a product and a name")
		}
		if item.Quantity < 1 {
			return apperrors.Validation(fmt.Sprintf("Quantity of %s must be at least 1", item.Name))
		}
		if item.Price < 0 {
			return apperrors.Validation(fmt.Sprintf("Price of %s cannot be negative", item.Name))
		}
	}
	if in.PaymentInfo.ID == "" || in.PaymentInfo.Status == "" {
		return apperrors.Validation("Please provide payment info")
	}
	if in.ItemsPrice < 0 || in.TaxPrice < 0 || in.ShippingPrice < 0 || in.TotalPrice < 0 {
		return apperrors.Validation("Prices cannot be negative")
	}
	return nil
}

// Create passe une commande payée en Processing pour userID.
func (s *OrderService) Create(ctx context.Context, userID string, in OrderInput) (*models.Order, error) {
	if err := validateOrder(in); err != nil {
		return nil, err
	}
	if s.payments != nil {
		if err := s.payments.VerifyPayment(ctx, in.PaymentInfo.ID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	order := &models.Order{
		ID:            uuid.NewString(),
		ShippingInfo:  in.ShippingInfo,
		OrderItems:    in.OrderItems,
		PaymentInfo:   in.PaymentInfo,
		ItemsPrice:    in.ItemsPrice,
		TaxPrice:      in.TaxPrice,
		ShippingPrice: in.ShippingPrice,
		TotalPrice:    in.TotalPrice,
		OrderStatus:   models.StatusProcessing,
		PaidAt:        now,
		CreatedAt:     now,
		User:          userID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create order: %w", err))
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Float64("total", order.TotalPrice))
	s.notifier.PaymentSuccess(ctx, order)
	return order, nil
}

func (s *OrderService) load(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Order", id)
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("get order %s: %w", id, err))
	}
	return order, nil
}

// Get retourne la commande avec son propriétaire. Seuls le propriétaire et les admins y ont accès.
func (s *OrderService) Get(ctx context.Context, id string, caller *models.User) (*models.OrderView, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.User != caller.ID && !caller.IsAdmin() {
		return nil, apperrors.Forbidden("You are not allowed to access this order")
	}

	view := &models.OrderView{Order: order}
	owner, err := s.users.GetByID(ctx, order.User)
	switch {
	case err == nil:
		view.User = &models.OrderOwner{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Debug("order owner no longer exists", zap.String("order_id", id))
	default:
		return nil, apperrors.Internal(fmt.Errorf("load owner of order %s: %w", id, err))
	}
	return view, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID string) ([]*models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list orders of %s: %w", userID, err))
	}
	return orders, nil
}

// ListAll retourne toutes les commandes et la somme de leurs totaux.
func (s *OrderService) ListAll(ctx context.Context) ([]*models.Order, float64, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("list orders: %w", err))
	}
	total := 0.0
	for _, o := range orders {
		total += o.TotalPrice
	}
	return orders, total, nil
}

// UpdateStatus passe une commande en Shipped ou Delivered.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("Invalid order status: %s", status))
	}
	if status != models.StatusShipped && status != models.StatusDelivered {
		return nil, apperrors.Validation("Order status can only be changed to Shipped or Delivered")
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.OrderStatus
	if err := transitionError(from, status); err != nil {
		return nil, err
	}

	if from == models.StatusProcessing {
		order, err = s.commit(ctx, order, status)
	} else {
		order, err = s.deliverShipped(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, order, from)
	s.notifier.StatusChanged(ctx, order)
	return order, nil
}

// transitionError explique pourquoi from ne peut pas passer à to, nil si c'est possible.
func transitionError(from, to models.OrderStatus) error {
	switch {
	case from == models.StatusDelivered:
		return apperrors.Validation("You have already delivered this order")
	case from == models.StatusCancelled:
		return apperrors.Validation("Order has been cancelled")
	case from == models.StatusShipped && to == models.StatusShipped:
		return apperrors.Validation("Order has already been shipped")
	}
	return nil
}

// commit réserve target, puis décrémente le stock de chaque ligne.
func (s *OrderService) commit(ctx context.Context, order *models.Order, target models.OrderStatus) (*models.Order, error) {
	var deliveredAt *time.Time
	if target == models.StatusDelivered {
		t := s.now()
		deliveredAt = &t
	}

	if err := s.claim(ctx, order.ID, models.StatusProcessing, target, repository.StatusChange{DeliveredAt: deliveredAt}); err != nil {
		return nil, err
	}

	applied := make([]models.OrderItem, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		if _, err := s.inventory.Adjust(ctx, item.Product, -item.Quantity, models.MovementSale, order.ID); err != nil {
			s.logger.Warn("inventory commit failed, rolling back",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.Product),
				zap.Error(err))
			s.rollback(ctx, order, target, applied)
			return nil, err
		}
		applied = append(applied, item)
	}

	change := repository.StatusChange{StockCommitted: true, DeliveredAt: deliveredAt}
	if _, err := s.orders.CompareAndSetStatus(ctx, order.ID, target, target, change); err != nil {
		// Le stock est déjà décrémenté, la commande reste réservée mais non marquée.
		s.logger.Error("order inventory committed but not marked",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, apperrors.Internal(fmt.Errorf("mark order %s committed: %w", order.ID, err))
	}

	order.OrderStatus = target
	order.StockCommitted = true
	order.DeliveredAt = deliveredAt
	return order, nil
}

// rollback annule les décrémentations appliquées et libère la réservation.
func (s *OrderService) rollback(ctx context.Context, order *models.Order, claimed models.OrderStatus, applied []models.OrderItem) {
	ctx = context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		item := applied[i]
		if _, err := s.inventory.Adjust(ctx, item.Product, item.Quantity, models.MovementRollback, order.ID); err != nil {
			s.logger.Error("stock rollback failed",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.Product),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}

	ok, err := s.orders.CompareAndSetStatus(ctx, order.ID, claimed, models.StatusProcessing, repository.StatusChange{})
	if err != nil || !ok {
		s.logger.Error("order status not restored",
			zap.String("order_id", order.ID),
			zap.String("claimed", string(claimed)),
			zap.Bool("applied", ok),
			zap.Error(err))
	}
}

func (s *OrderService) deliverShipped(ctx context.Context, order *models.Order) (*models.Order, error) {
	if !order.StockCommitted {
		return nil, apperrors.Conflict(fmt.Sprintf("Order %s is still being processed, try again", order.ID))
	}
	t := s.now()
	change := repository.StatusChange{StockCommitted: true, DeliveredAt: &t}
	if err := s.claim(ctx, order.ID, models.StatusShipped, models.StatusDelivered, change); err != nil {
		return nil, err
	}
	order.OrderStatus = models.StatusDelivered
	order.DeliveredAt = &t
	return order, nil
}

// claim fait l'écriture conditionnelle du statut et explique une course perdue.
func (s *OrderService) claim(ctx context.Context, id string, from, to models.OrderStatus, change repository.StatusChange) error {
	ok, err := s.orders.CompareAndSetStatus(ctx, id, from, to, change)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Order", id)
	}
	if err != nil {
		return apperrors.Internal(fmt.Errorf("update status of order %s: %w", id, err))
	}
	if ok {
		return nil
	}

	metrics.CASRetriesTotal.WithLabelValues("order").Inc()
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if to == models.StatusCancelled {
		return cancelError(current.OrderStatus)
	}
	if err := transitionError(current.OrderStatus, to); err != nil {
		return err
	}
	return apperrors.Conflict(fmt.Sprintf("Order %s changed concurrently, try again", id))
}

func cancelError(status models.OrderStatus) error {
	return apperrors.Validation(fmt.Sprintf("Order cannot be cancelled as it is already %s", status))
}

// Cancel permet au propriétaire d'annuler une commande encore en Processing.
func (s *OrderService) Cancel(ctx context.Context, id string, caller *models.User) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.User != caller.ID {
		return nil, apperrors.Forbidden("You are not allowed to cancel this order")
	}
	if order.OrderStatus != models.StatusProcessing {
		return nil, cancelError(order.OrderStatus)
	}

	change := repository.StatusChange{StockCommitted: order.StockCommitted}
	if err := s.claim(ctx, id, models.StatusProcessing, models.StatusCancelled, change); err != nil {
		return nil, err
	}

	if order.StockCommitted {
		restockCtx := context.WithoutCancel(ctx)
		for _, item := range order.OrderItems {
			if _, err := s.inventory.Adjust(restockCtx, item.Product, item.Quantity, models.MovementReturn, id); err != nil {
				s.logger.Error("restock after cancel failed",
					zap.String("order_id", id),
					zap.String("product_id", item.Product),
					zap.Error(err))
			}
		}
	}

	order.OrderStatus = models.StatusCancelled
	s.transitioned(ctx, order, models.StatusProcessing)
	s.notifier.OrderCancelled(ctx, order)
	return order, nil
}

// Delete supprime une commande sans toucher au stock.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	err := s.orders.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Order", id)
	}
	if err != nil {
		return apperrors.Internal(fmt.Errorf("delete order %s: %w", id, err))
	}
	s.logger.Info("order deleted", zap.String("order_id", id))
	return nil
}

func (s *OrderService) transitioned(ctx context.Context, order *models.Order, from models.OrderStatus) {
	metrics.OrderTransitionsTotal.WithLabelValues(string(from), string(order.OrderStatus)).Inc()
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(order.OrderStatus)))
	if s.events != nil {
		s.events.Publish(ctx, models.StatusEvent{
			OrderID:   order.ID,
			UserID:    order.User,
			Status:    order.OrderStatus,
			ChangedAt: s.now(),
		})
	}
}
