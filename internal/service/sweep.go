package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/repository"
)

const dispatchTimeout = 10 * time.Second

// SweepResult содержит итоги одного обхода напоминаний.
type SweepResult struct {
	Overdue int64
	Sent    int
	Failed  int
	Skipped int
}

// StartReminderSweeps запускает периодический обход напоминаний. Внешний
// планировщик может вместо этого вызывать RunReminderSweep напрямую:
// повторный запуск в один календарный день не создаёт дубликатов.
func (s *Service) StartReminderSweeps(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := s.RunReminderSweep(ctx, time.Now())
				if err != nil {
					s.logger.Error("reminder sweep error", zap.Error(err))
					continue
				}
				s.logger.Info("reminder sweep finished",
					zap.Int64("overdue_marked", res.Overdue),
					zap.Int("sent", res.Sent),
					zap.Int("failed", res.Failed),
					zap.Int("skipped", res.Skipped))
			}
		}
	}()
}

// RunReminderSweep выполняет один обход: материализует просрочку, отбирает
// взносы со сроком в день asOf и просроченные и формирует напоминания по
// настроенным каналам. Сбой доставки одного напоминания фиксируется записью
// failed и не прерывает обход остальных.
func (s *Service) RunReminderSweep(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	res := &SweepResult{}

	marked, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("materialize overdue: %w", err)
	}
	res.Overdue = marked

	items, err := s.repo.SweepInstallments(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("select installments: %w", err)
	}

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	type outcome struct {
		sent, failed, skipped int
	}
	outcomes := make([]outcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepWorkers)

	for i, item := range items {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			o := s.processSweepItem(gctx, item, day)
			outcomes[i] = outcome{sent: o.sent, failed: o.failed, skipped: o.skipped}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Обход прерван; уже отправленные напоминания остаются sent,
		// незавершённые будут повторены следующим обходом.
		return res, err
	}

	for _, o := range outcomes {
		res.Sent += o.sent
		res.Failed += o.failed
		res.Skipped += o.skipped
	}

	return res, nil
}

type itemOutcome struct {
	sent, failed, skipped int
}

func (s *Service) processSweepItem(ctx context.Context, item repository.SweepItem, day time.Time) itemOutcome {
	var out itemOutcome

	channels := []model.ReminderType{model.ReminderTypeInApp}
	if s.notifier != nil {
		channels = append(channels, model.ReminderTypeEmail)
	}

	for _, ch := range channels {
		reminderID, reserved, err := s.repo.ReserveReminder(ctx, item.Installment.ID, ch, day)
		if err != nil {
			s.logger.Error("reserve reminder error", zap.Error(err),
				zap.Int64("installment", item.Installment.ID), zap.String("type", string(ch)))
			out.failed++
			continue
		}
		if !reserved {
			out.skipped++
			continue
		}

		switch ch {
		case model.ReminderTypeInApp:
			message := composeInAppMessage(item, day)
			if err := s.repo.MarkReminderSent(ctx, reminderID, message, time.Now()); err != nil {
				s.logger.Error("mark reminder sent error", zap.Error(err), zap.Int64("reminder", reminderID))
				out.failed++
				continue
			}
			out.sent++

		case model.ReminderTypeEmail:
			subject, body := composeEmail(item, day)

			sendCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
			err := s.notifier.Send(sendCtx, string(model.ReminderTypeEmail), item.CustomerEmail, subject, body)
			cancel()

			if err != nil {
				failMsg := fmt.Sprintf("failed to send email: %s", err)
				if markErr := s.repo.MarkReminderFailed(ctx, reminderID, failMsg); markErr != nil {
					s.logger.Error("mark reminder failed error", zap.Error(markErr), zap.Int64("reminder", reminderID))
				}
				out.failed++
				continue
			}

			if err := s.repo.MarkReminderSent(ctx, reminderID, body, time.Now()); err != nil {
				s.logger.Error("mark reminder sent error", zap.Error(err), zap.Int64("reminder", reminderID))
				out.failed++
				continue
			}
			out.sent++
		}
	}

	return out
}

func daysOverdue(item repository.SweepItem, day time.Time) int {
	due := item.Installment.DueDate
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(dueDay).Hours() / 24)
}

func composeInAppMessage(item repository.SweepItem, day time.Time) string {
	ins := item.Installment
	if days := daysOverdue(item, day); days > 0 {
		return fmt.Sprintf("Payment of $%s is %d days overdue for Order #%d",
			ins.Amount.StringFixed(2), days, ins.OrderID)
	}
	return fmt.Sprintf("Payment of $%s is due today for Order #%d",
		ins.Amount.StringFixed(2), ins.OrderID)
}

func composeEmail(item repository.SweepItem, day time.Time) (subject, body string) {
	ins := item.Installment
	days := daysOverdue(item, day)

	if days > 0 {
		subject = fmt.Sprintf("Overdue Payment - Order #%d", ins.OrderID)
		body = fmt.Sprintf(`Dear %s,

Your payment of $%s for Order #%d is now overdue.

Installment Details:
- Installment #%d
- Amount: $%s
- Due Date: %s
- Days Overdue: %d
- Product: %s

Please make your payment immediately to avoid additional late fees and to maintain your account in good standing.

Best regards,
%s`,
			item.CustomerName, ins.Amount.StringFixed(2), ins.OrderID,
			ins.Number, ins.Amount.StringFixed(2), ins.DueDate.Format("2006-01-02"),
			days, item.ProductName, item.BusinessName)
		return subject, body
	}

	subject = fmt.Sprintf("Payment Due Today - Order #%d", ins.OrderID)
	body = fmt.Sprintf(`Dear %s,

This is a friendly reminder that your payment of $%s is due today for Order #%d.

Installment Details:
- Installment #%d
- Amount: $%s
- Due Date: %s
- Product: %s

Please make your payment as soon as possible to avoid any late fees.

Best regards,
%s`,
		item.CustomerName, ins.Amount.StringFixed(2), ins.OrderID,
		ins.Number, ins.Amount.StringFixed(2), ins.DueDate.Format("2006-01-02"),
		item.ProductName, item.BusinessName)
	return subject, body
}
