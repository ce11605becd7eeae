package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ecoshop_back_end/internal/metrics"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
	"ecoshop_back_end/internal/utils"
)

const notifyTimeout = 10 * time.Second

// Notifier envoie les emails aux propriétaires des commandes. L'envoi se fait
// au mieux, hors du chemin de la requête : les échecs sont logués et comptés,
// jamais retournés, et l'annulation de la requête n'interrompt pas un envoi
// dont l'écriture principale est déjà faite.
type Notifier struct {
	mailer   utils.Mailer
	users    repository.UserRepository
	logger   *zap.Logger
	now      func() time.Time
	timeout  time.Duration
	runAsync func(func())
	inflight sync.WaitGroup
}

func NewNotifier(mailer utils.Mailer, users repository.UserRepository, logger *zap.Logger) *Notifier {
	n := &Notifier{
		mailer:  mailer,
		users:   users,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: notifyTimeout,
	}
	n.runAsync = func(f func()) {
		n.inflight.Add(1)
		go func() {
			defer n.inflight.Done()
			f()
		}()
	}
	return n
}

// Wait attend que chaque notification en cours ait été tentée.
func (n *Notifier) Wait() {
	n.inflight.Wait()
}

func (n *Notifier) PaymentSuccess(ctx context.Context, order *models.Order) {
	n.send(ctx, "payment_success", order, utils.SubjectPaymentSuccess, utils.PaymentSuccessEmail(order, n.now()))
}

func (n *Notifier) OrderCancelled(ctx context.Context, order *models.Order) {
	n.send(ctx, "order_cancelled", order, utils.SubjectOrderCancelled, utils.OrderCancellationEmail(order, n.now()))
}

func (n *Notifier) StatusChanged(ctx context.Context, order *models.Order) {
	n.send(ctx, "status_update", order, utils.StatusUpdateSubject(order.OrderStatus), utils.StatusUpdateEmail(order))
}

func (n *Notifier) send(ctx context.Context, kind string, order *models.Order, subject, body string) {
	detached := context.WithoutCancel(ctx)
	orderID, userID := order.ID, order.User
	n.runAsync(func() {
		n.deliverLogged(detached, kind, orderID, userID, subject, body)
	})
}

func (n *Notifier) deliverLogged(ctx context.Context, kind, orderID, userID, subject, body string) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.deliver(ctx, userID, subject, body); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(kind).Inc()
		n.logger.Warn("notification not sent",
			zap.String("kind", kind),
			zap.String("order_id", orderID),
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	n.logger.Info("notification sent",
		zap.String("kind", kind),
		zap.String("order_id", orderID))
}

func (n *Notifier) deliver(ctx context.Context, userID, subject, body string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup recipient %s: %w", userID, err)
	}
	return n.mailer.Send(ctx, user.Email, subject, body)
}
