// Package schedule содержит чистые функции расчёта плана рассрочки:
// сумму ежемесячного взноса и последовательность дат платежей.
package schedule

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTerms возвращается при некорректных финансовых условиях заказа.
var ErrInvalidTerms = errors.New("invalid order terms")

// DueDateIntervalDays — фиксированный шаг между взносами в днях. Намеренное
// упрощение: даты не привязываются к календарному месяцу.
const DueDateIntervalDays = 30

// ValidateTerms проверяет финансовые условия заказа: сумма положительна,
// первоначальный взнос неотрицателен и строго меньше суммы, количество
// взносов не меньше одного.
func ValidateTerms(total, down decimal.Decimal, count int) error {
	if count < 1 {
		return ErrInvalidTerms
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidTerms
	}
	if down.IsNegative() {
		return ErrInvalidTerms
	}
	if down.GreaterThanOrEqual(total) {
		return ErrInvalidTerms
	}
	return nil
}

// MonthlyPayment вычисляет сумму одного взноса: (total - down) / count.
// Деление десятичное, результат не округляется заранее — округление для
// отображения остаётся на стороне вызывающего. Остаток деления не
// переносится на последний взнос: все взносы равны.
func MonthlyPayment(total, down decimal.Decimal, count int) (decimal.Decimal, error) {
	if err := ValidateTerms(total, down, count); err != nil {
		return decimal.Decimal{}, err
	}
	return total.Sub(down).Div(decimal.NewFromInt(int64(count))), nil
}

// DueDate возвращает срок взноса с номером n: start + 30*n дней.
func DueDate(start time.Time, n int) time.Time {
	return start.AddDate(0, 0, DueDateIntervalDays*n)
}
