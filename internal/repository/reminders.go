package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/installment-system/internal/model"
)

// SweepItem описывает взнос, отобранный обходом напоминаний, вместе с
// данными для составления сообщения.
type SweepItem struct {
	Installment   model.Installment
	CustomerName  string
	CustomerEmail string
	ProductName   string
	BusinessName  string
}

// MarkOverdue материализует производный статус overdue: помечает
// просроченными все ожидающие взносы со сроком раньше asOf. Сама деривация
// остаётся чистой (model.DeriveInstallmentStatus); этот проход — единственное
// место, где производное состояние записывается в хранилище.
func (r *PostgresRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE installments SET status = $1 WHERE status = $2 AND due_date < $3::date`,
		string(model.InstallmentStatusOverdue), string(model.InstallmentStatusPending), asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SweepInstallments возвращает взносы всех продавцов, требующие напоминания
// на дату asOf: со сроком в этот день либо просроченные и всё ещё неоплаченные.
func (r *PostgresRepository) SweepInstallments(ctx context.Context, asOf time.Time) ([]SweepItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.order_id, i.installment_number, i.amount::text, i.due_date, i.status, i.paid_date,
			c.first_name || ' ' || c.last_name, c.email, pr.name, s.business_name
		 FROM installments i
		 JOIN orders o ON o.id = i.order_id
		 JOIN customers c ON c.id = o.customer_id
		 JOIN products pr ON pr.id = o.product_id
		 JOIN sellers s ON s.id = o.seller_id
		 WHERE i.status IN ($1, $2) AND i.due_date <= $3::date
		 ORDER BY i.due_date, i.id`,
		string(model.InstallmentStatusPending), string(model.InstallmentStatusOverdue), asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("select sweep installments: %w", err)
	}
	defer rows.Close()

	var res []SweepItem
	for rows.Next() {
		var (
			item      SweepItem
			amountRaw string
			status    string
		)
		ins := &item.Installment
		if err := rows.Scan(&ins.ID, &ins.OrderID, &ins.Number, &amountRaw, &ins.DueDate, &status, &ins.PaidDate,
			&item.CustomerName, &item.CustomerEmail, &item.ProductName, &item.BusinessName); err != nil {
			return nil, fmt.Errorf("scan sweep item: %w", err)
		}
		if ins.Amount, err = parseDecimal(amountRaw); err != nil {
			return nil, err
		}
		ins.Status = model.InstallmentStatus(status)
		res = append(res, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// reminderStaleAfter — срок, после которого резервация pending без
// результата считается брошенной упавшим обходом и перехватывается заново.
const reminderStaleAfter = 15 * time.Minute

// ReserveReminder атомарно резервирует напоминание по ключу
// (взнос, канал, календарный день). Возвращает идентификатор зарезервированной
// записи и false, когда напоминание этого дня уже отправлено или
// обрабатывается другим обходом: повторный запуск в тот же день не создаёт
// дубликатов. Неудачные напоминания и резервации, брошенные упавшим обходом,
// перехватываются для повторной отправки.
func (r *PostgresRepository) ReserveReminder(ctx context.Context, installmentID int64, typ model.ReminderType, day time.Time) (int64, bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payment_reminders (installment_id, reminder_type, scheduled_date, scheduled_on, status)
		 VALUES ($1, $2, now(), $3::date, $4)
		 ON CONFLICT (installment_id, reminder_type, scheduled_on) DO NOTHING
		 RETURNING id`,
		installmentID, string(typ), day, string(model.ReminderStatusPending),
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("insert reminder: %w", err)
	}

	// Запись уже есть: повторить можно неудачную попытку либо резервацию,
	// которую обход оставил в pending дольше reminderStaleAfter назад.
	// scheduled_date служит отметкой времени резервации и обновляется
	// при перехвате.
	err = r.pool.QueryRow(ctx,
		`UPDATE payment_reminders SET status = $4, scheduled_date = now()
		 WHERE installment_id = $1 AND reminder_type = $2 AND scheduled_on = $3::date
		   AND (status = $5 OR (status = $4 AND scheduled_date < now() - make_interval(secs => $6)))
		 RETURNING id`,
		installmentID, string(typ), day,
		string(model.ReminderStatusPending), string(model.ReminderStatusFailed),
		reminderStaleAfter.Seconds(),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reclaim reminder: %w", err)
	}

	return id, true, nil
}

// MarkReminderSent помечает напоминание отправленным с текстом сообщения.
func (r *PostgresRepository) MarkReminderSent(ctx context.Context, reminderID int64, message string, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payment_reminders SET status = $2, sent_date = $3, message = $4 WHERE id = $1`,
		reminderID, string(model.ReminderStatusSent), sentAt, message,
	)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// MarkReminderFailed помечает напоминание неудавшимся с пояснением.
func (r *PostgresRepository) MarkReminderFailed(ctx context.Context, reminderID int64, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payment_reminders SET status = $2, message = $3 WHERE id = $1`,
		reminderID, string(model.ReminderStatusFailed), message,
	)
	if err != nil {
		return fmt.Errorf("mark reminder failed: %w", err)
	}
	return nil
}

// ListReminders возвращает напоминания по взносам заказов продавца.
func (r *PostgresRepository) ListReminders(ctx context.Context, sellerID int64) ([]model.PaymentReminder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pr.id, pr.installment_id, pr.reminder_type, pr.scheduled_date, pr.sent_date, pr.status, pr.message
		 FROM payment_reminders pr
		 JOIN installments i ON i.id = pr.installment_id
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.seller_id = $1
		 ORDER BY pr.scheduled_date DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select reminders: %w", err)
	}
	defer rows.Close()

	var res []model.PaymentReminder
	for rows.Next() {
		var (
			rem    model.PaymentReminder
			typ    string
			status string
		)
		if err := rows.Scan(&rem.ID, &rem.InstallmentID, &typ, &rem.ScheduledDate, &rem.SentDate, &status, &rem.Message); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		rem.Type = model.ReminderType(typ)
		rem.Status = model.ReminderStatus(status)
		res = append(res, rem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// NextScheduleJobs возвращает созревшие задачи генерации графика.
func (r *PostgresRepository) NextScheduleJobs(ctx context.Context, limit int) ([]model.ScheduleJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, attempts, created_at
		 FROM schedule_jobs
		 WHERE run_after <= now()
		 ORDER BY created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select schedule jobs: %w", err)
	}
	defer rows.Close()

	var res []model.ScheduleJob
	for rows.Next() {
		var j model.ScheduleJob
		if err := rows.Scan(&j.ID, &j.OrderID, &j.Attempts, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule job: %w", err)
		}
		res = append(res, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CompleteScheduleJob удаляет выполненную задачу из очереди.
func (r *PostgresRepository) CompleteScheduleJob(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM schedule_jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("complete schedule job: %w", err)
	}
	return nil
}

// FailScheduleJob увеличивает счётчик попыток и откладывает задачу.
func (r *PostgresRepository) FailScheduleJob(ctx context.Context, jobID string, delay time.Duration) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE schedule_jobs SET attempts = attempts + 1, run_after = now() + make_interval(secs => $2) WHERE id = $1`,
		jobID, delay.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("fail schedule job: %w", err)
	}
	return nil
}
