package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/schedule"
)

const orderColumns = `id, seller_id, customer_id, product_id, quantity,
	total_amount::text, down_payment::text, installment_count, monthly_payment::text,
	status, order_date, approved_date, start_date, notes`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o          model.Order
		totalRaw   string
		downRaw    string
		monthlyRaw string
		status     string
	)
	err := row.Scan(&o.ID, &o.SellerID, &o.CustomerID, &o.ProductID, &o.Quantity,
		&totalRaw, &downRaw, &o.InstallmentCount, &monthlyRaw,
		&status, &o.OrderDate, &o.ApprovedDate, &o.StartDate, &o.Notes)
	if err != nil {
		return nil, err
	}

	o.Status = model.OrderStatus(status)
	if o.TotalAmount, err = parseDecimal(totalRaw); err != nil {
		return nil, err
	}
	if o.DownPayment, err = parseDecimal(downRaw); err != nil {
		return nil, err
	}
	if o.MonthlyPayment, err = parseDecimal(monthlyRaw); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder сохраняет новый заказ в статусе pending.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order) (*model.Order, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1 AND seller_id = $2)`,
		o.CustomerID, o.SellerID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check customer: %w", err)
	}
	if !exists {
		return nil, ErrCustomerNotFound
	}

	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND seller_id = $2)`,
		o.ProductID, o.SellerID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO orders (seller_id, customer_id, product_id, quantity,
			total_amount, down_payment, installment_count, monthly_payment, notes)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8::numeric, $9)
		 RETURNING `+orderColumns,
		o.SellerID, o.CustomerID, o.ProductID, o.Quantity,
		o.TotalAmount.String(), o.DownPayment.String(), o.InstallmentCount,
		o.MonthlyPayment.String(), o.Notes,
	)

	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

// GetOrder возвращает заказ продавца по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, sellerID, orderID int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND seller_id = $2`,
		orderID, sellerID,
	)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders возвращает заказы продавца, опционально отфильтрованные по статусу.
func (r *PostgresRepository) ListOrders(ctx context.Context, sellerID int64, status model.OrderStatus) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE seller_id = $1`
	args := []any{sellerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY order_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var res []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListCustomerOrders возвращает заказы одного покупателя продавца.
func (r *PostgresRepository) ListCustomerOrders(ctx context.Context, sellerID, customerID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE seller_id = $1 AND customer_id = $2
		 ORDER BY order_date DESC`,
		sellerID, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select customer orders: %w", err)
	}
	defer rows.Close()

	var res []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListCustomerInstallments возвращает взносы по всем заказам одного
// покупателя продавца.
func (r *PostgresRepository) ListCustomerInstallments(ctx context.Context, sellerID, customerID int64) ([]model.Installment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.order_id, i.installment_number, i.amount::text, i.due_date, i.status, i.paid_date
		 FROM installments i
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.seller_id = $1 AND o.customer_id = $2
		 ORDER BY i.order_id, i.installment_number`,
		sellerID, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select customer installments: %w", err)
	}
	defer rows.Close()

	return scanInstallments(rows)
}

// ListCustomerPayments возвращает платежи по всем заказам одного покупателя
// продавца.
func (r *PostgresRepository) ListCustomerPayments(ctx context.Context, sellerID, customerID int64) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.order_id, p.installment_id, p.amount::text, p.method,
			p.payment_date, p.reference_number, p.notes, p.recorded_by
		 FROM payments p
		 JOIN orders o ON o.id = p.order_id
		 WHERE o.seller_id = $1 AND o.customer_id = $2
		 ORDER BY p.payment_date DESC`,
		sellerID, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select customer payments: %w", err)
	}
	defer rows.Close()

	var res []model.Payment
	for rows.Next() {
		var (
			p         model.Payment
			amountRaw string
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.InstallmentID, &amountRaw, &p.Method,
			&p.PaymentDate, &p.ReferenceNumber, &p.Notes, &p.RecordedBy); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = parseDecimal(amountRaw); err != nil {
			return nil, err
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ApproveOrder переводит заказ из pending в approved, фиксирует дату
// одобрения и старта графика и в той же транзакции ставит задачу генерации
// графика в очередь schedule_jobs. Четыре эффекта атомарны.
func (r *PostgresRepository) ApproveOrder(ctx context.Context, sellerID, orderID int64, jobID string, now time.Time) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 AND seller_id = $2 FOR UPDATE`,
		orderID, sellerID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if model.OrderStatus(status) != model.OrderStatusPending {
		return nil, fmt.Errorf("%w: %s -> approved", ErrInvalidTransition, status)
	}

	row := tx.QueryRow(ctx,
		`UPDATE orders
		 SET status = $2, approved_date = $3, start_date = COALESCE(start_date, $4)
		 WHERE id = $1
		 RETURNING `+orderColumns,
		orderID, string(model.OrderStatusApproved), now, now,
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO schedule_jobs (id, order_id) VALUES ($1, $2)`,
		jobID, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue schedule job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return o, nil
}

// CancelOrder переводит заказ из любого неконечного статуса в cancelled.
func (r *PostgresRepository) CancelOrder(ctx context.Context, sellerID, orderID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 AND seller_id = $2 FOR UPDATE`,
		orderID, sellerID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}

	if model.OrderStatus(status).Terminal() {
		return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, status)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		orderID, string(model.OrderStatusCancelled),
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GenerateSchedule пересоздаёт график взносов заказа: блокирует строку
// заказа, удаляет существующие взносы и создаёт installment_count новых с
// суммами из калькулятора. Идемпотентна: повторный вызов для заказа без
// платежей даёт тот же набор (номер, сумма, срок). История платежей при
// регенерации после оплат теряется, поэтому вызывается только из очереди
// одобрения. Заказ в статусе approved переводится в active.
func (r *PostgresRepository) GenerateSchedule(ctx context.Context, orderID int64) error {
	return r.withRetry(ctx, func() error {
		return r.generateSchedule(ctx, orderID)
	})
}

func (r *PostgresRepository) generateSchedule(ctx context.Context, orderID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		totalRaw  string
		downRaw   string
		count     int
		status    string
		startDate *time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT total_amount::text, down_payment::text, installment_count, status, start_date
		 FROM orders WHERE id = $1 FOR UPDATE`,
		orderID,
	).Scan(&totalRaw, &downRaw, &count, &status, &startDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}

	if startDate == nil {
		return ErrScheduleNotStarted
	}

	total, err := parseDecimal(totalRaw)
	if err != nil {
		return err
	}
	down, err := parseDecimal(downRaw)
	if err != nil {
		return err
	}

	amount, err := schedule.MonthlyPayment(total, down, count)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM installments WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("clear installments: %w", err)
	}

	for n := 1; n <= count; n++ {
		_, err = tx.Exec(ctx,
			`INSERT INTO installments (order_id, installment_number, amount, due_date, status)
			 VALUES ($1, $2, $3::numeric, $4, $5)`,
			orderID, n, amount.String(), schedule.DueDate(*startDate, n), string(model.InstallmentStatusPending),
		)
		if err != nil {
			return fmt.Errorf("insert installment %d: %w", n, err)
		}
	}

	if model.OrderStatus(status) == model.OrderStatusApproved {
		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE id = $1`,
			orderID, string(model.OrderStatusActive),
		); err != nil {
			return fmt.Errorf("activate order: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// RecordPaymentParams описывает параметры фиксации платежа.
type RecordPaymentParams struct {
	SellerID      int64
	OrderID       int64
	InstallmentID *int64
	Amount        decimal.Decimal
	Method        string
	Reference     string
	Notes         string
	RecordedBy    *int64
	At            time.Time
}

// RecordPayment фиксирует платёж по заказу в одной транзакции. Строка заказа
// блокируется, поэтому два конкурентных платежа по одному взносу не могут
// пометить его оплаченным несогласованно. Привязанный взнос помечается
// оплаченным только при amount >= суммы взноса; оплаченный статус конечен.
// Если после платежа не остаётся неоплаченных взносов, заказ завершается.
func (r *PostgresRepository) RecordPayment(ctx context.Context, p RecordPaymentParams) (*model.Payment, error) {
	var payment *model.Payment
	err := r.withRetry(ctx, func() error {
		var err error
		payment, err = r.recordPayment(ctx, p)
		return err
	})
	return payment, err
}

func (r *PostgresRepository) recordPayment(ctx context.Context, p RecordPaymentParams) (*model.Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderStatus string
	err = tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1 AND seller_id = $2 FOR UPDATE`,
		p.OrderID, p.SellerID,
	).Scan(&orderStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	var (
		insAmount decimal.Decimal
		insStatus model.InstallmentStatus
	)
	if p.InstallmentID != nil {
		var amountRaw, statusRaw string
		err = tx.QueryRow(ctx,
			`SELECT amount::text, status FROM installments WHERE id = $1 AND order_id = $2`,
			*p.InstallmentID, p.OrderID,
		).Scan(&amountRaw, &statusRaw)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInstallmentNotFound
			}
			return nil, fmt.Errorf("get installment: %w", err)
		}
		if insAmount, err = parseDecimal(amountRaw); err != nil {
			return nil, err
		}
		insStatus = model.InstallmentStatus(statusRaw)
	}

	var payment model.Payment
	err = tx.QueryRow(ctx,
		`INSERT INTO payments (order_id, installment_id, amount, method, payment_date, reference_number, notes, recorded_by)
		 VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
		 RETURNING id, payment_date`,
		p.OrderID, p.InstallmentID, p.Amount.String(), p.Method, p.At, p.Reference, p.Notes, p.RecordedBy,
	).Scan(&payment.ID, &payment.PaymentDate)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	payment.OrderID = p.OrderID
	payment.InstallmentID = p.InstallmentID
	payment.Amount = p.Amount
	payment.Method = p.Method
	payment.ReferenceNumber = p.Reference
	payment.Notes = p.Notes
	payment.RecordedBy = p.RecordedBy

	if p.InstallmentID != nil && insStatus != model.InstallmentStatusPaid && p.Amount.GreaterThanOrEqual(insAmount) {
		_, err = tx.Exec(ctx,
			`UPDATE installments SET status = $2, paid_date = $3::date WHERE id = $1`,
			*p.InstallmentID, string(model.InstallmentStatusPaid), payment.PaymentDate,
		)
		if err != nil {
			return nil, fmt.Errorf("mark installment paid: %w", err)
		}
	}

	// Заказ завершается, когда после платежа не остаётся неоплаченных взносов.
	st := model.OrderStatus(orderStatus)
	if st == model.OrderStatusApproved || st == model.OrderStatusActive {
		var unpaid int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM installments WHERE order_id = $1 AND status <> $2`,
			p.OrderID, string(model.InstallmentStatusPaid),
		).Scan(&unpaid)
		if err != nil {
			return nil, fmt.Errorf("count unpaid installments: %w", err)
		}

		var totalIns int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM installments WHERE order_id = $1`,
			p.OrderID,
		).Scan(&totalIns)
		if err != nil {
			return nil, fmt.Errorf("count installments: %w", err)
		}

		if totalIns > 0 && unpaid == 0 {
			_, err = tx.Exec(ctx,
				`UPDATE orders SET status = $2 WHERE id = $1`,
				p.OrderID, string(model.OrderStatusCompleted),
			)
			if err != nil {
				return nil, fmt.Errorf("complete order: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &payment, nil
}

// RemainingBalance возвращает остаток по заказу:
// total_amount - down_payment - сумма платежей. Может быть отрицательным при
// переплате и не ограничивается нулём.
func (r *PostgresRepository) RemainingBalance(ctx context.Context, sellerID, orderID int64) (decimal.Decimal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT (o.total_amount - o.down_payment - COALESCE(SUM(p.amount), 0))::text
		 FROM orders o
		 LEFT JOIN payments p ON p.order_id = o.id
		 WHERE o.id = $1 AND o.seller_id = $2
		 GROUP BY o.id`,
		orderID, sellerID,
	)

	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, ErrOrderNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("remaining balance: %w", err)
	}

	return parseDecimal(raw)
}

// IsOverdue сообщает, есть ли у заказа просроченные взносы на дату asOf.
func (r *PostgresRepository) IsOverdue(ctx context.Context, sellerID, orderID int64, asOf time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM installments i
			JOIN orders o ON o.id = i.order_id
			WHERE o.id = $1 AND o.seller_id = $2
			  AND (i.status = $3 OR (i.status = $4 AND i.due_date < $5::date))
		 )`,
		orderID, sellerID,
		string(model.InstallmentStatusOverdue), string(model.InstallmentStatusPending), asOf,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overdue: %w", err)
	}
	return exists, nil
}

// ListInstallments возвращает взносы заказа продавца по порядку номеров.
func (r *PostgresRepository) ListInstallments(ctx context.Context, sellerID, orderID int64) ([]model.Installment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.order_id, i.installment_number, i.amount::text, i.due_date, i.status, i.paid_date
		 FROM installments i
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.id = $1 AND o.seller_id = $2
		 ORDER BY i.installment_number`,
		orderID, sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select installments: %w", err)
	}
	defer rows.Close()

	res, err := scanInstallments(rows)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DueInstallments возвращает взносы продавца со сроком сегодня и просроченные.
func (r *PostgresRepository) DueInstallments(ctx context.Context, sellerID int64, asOf time.Time) (dueToday, overdue []model.Installment, err error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.order_id, i.installment_number, i.amount::text, i.due_date, i.status, i.paid_date
		 FROM installments i
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.seller_id = $1 AND i.status IN ($2, $3) AND i.due_date <= $4::date
		 ORDER BY i.due_date, i.installment_number`,
		sellerID, string(model.InstallmentStatusPending), string(model.InstallmentStatusOverdue), asOf,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("select due installments: %w", err)
	}
	defer rows.Close()

	all, err := scanInstallments(rows)
	if err != nil {
		return nil, nil, err
	}

	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	for _, ins := range all {
		if ins.DueDate.Before(day) {
			overdue = append(overdue, ins)
		} else {
			dueToday = append(dueToday, ins)
		}
	}

	return dueToday, overdue, nil
}

func scanInstallments(rows pgx.Rows) ([]model.Installment, error) {
	var res []model.Installment
	for rows.Next() {
		var (
			ins       model.Installment
			amountRaw string
			status    string
		)
		if err := rows.Scan(&ins.ID, &ins.OrderID, &ins.Number, &amountRaw, &ins.DueDate, &status, &ins.PaidDate); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		var err error
		if ins.Amount, err = parseDecimal(amountRaw); err != nil {
			return nil, err
		}
		ins.Status = model.InstallmentStatus(status)
		res = append(res, ins)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListPayments возвращает платежи продавца, опционально по одному заказу.
func (r *PostgresRepository) ListPayments(ctx context.Context, sellerID int64, orderID *int64) ([]model.Payment, error) {
	query := `SELECT p.id, p.order_id, p.installment_id, p.amount::text, p.method,
			p.payment_date, p.reference_number, p.notes, p.recorded_by
		 FROM payments p
		 JOIN orders o ON o.id = p.order_id
		 WHERE o.seller_id = $1`
	args := []any{sellerID}
	if orderID != nil {
		query += ` AND p.order_id = $2`
		args = append(args, *orderID)
	}
	query += ` ORDER BY p.payment_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var res []model.Payment
	for rows.Next() {
		var (
			p         model.Payment
			amountRaw string
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.InstallmentID, &amountRaw, &p.Method,
			&p.PaymentDate, &p.ReferenceNumber, &p.Notes, &p.RecordedBy); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = parseDecimal(amountRaw); err != nil {
			return nil, err
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// DashboardStats содержит сводные показатели продавца.
type DashboardStats struct {
	TotalOrders        int
	PendingOrders      int
	ActiveOrders       int
	TotalRevenue       decimal.Decimal
	DueTodayCount      int
	OverdueCount       int
	OutstandingBalance decimal.Decimal
}

// GetDashboardStats возвращает сводные показатели продавца на дату asOf.
func (r *PostgresRepository) GetDashboardStats(ctx context.Context, sellerID int64, asOf time.Time) (*DashboardStats, error) {
	var s DashboardStats

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status IN ('approved', 'active'))
		 FROM orders WHERE seller_id = $1`,
		sellerID,
	).Scan(&s.TotalOrders, &s.PendingOrders, &s.ActiveOrders)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	var revenueRaw string
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(p.amount), 0)::text
		 FROM payments p
		 JOIN orders o ON o.id = p.order_id
		 WHERE o.seller_id = $1`,
		sellerID,
	).Scan(&revenueRaw)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	if s.TotalRevenue, err = parseDecimal(revenueRaw); err != nil {
		return nil, err
	}

	var outstandingRaw string
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE i.due_date = $2::date),
			COUNT(*) FILTER (WHERE i.due_date < $2::date),
			COALESCE(SUM(i.amount), 0)::text
		 FROM installments i
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.seller_id = $1 AND i.status IN ($3, $4)`,
		sellerID, asOf, string(model.InstallmentStatusPending), string(model.InstallmentStatusOverdue),
	).Scan(&s.DueTodayCount, &s.OverdueCount, &outstandingRaw)
	if err != nil {
		return nil, fmt.Errorf("installment stats: %w", err)
	}
	if s.OutstandingBalance, err = parseDecimal(outstandingRaw); err != nil {
		return nil, err
	}

	return &s, nil
}
