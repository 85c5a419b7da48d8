// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

var paymentMethods = map[string]struct{}{
	"cash":          {},
	"card":          {},
	"bank_transfer": {},
	"check":         {},
	"other":         {},
}

// IsValidPaymentMethod проверяет, что способ оплаты из допустимого набора.
func IsValidPaymentMethod(method string) bool {
	_, ok := paymentMethods[method]
	return ok
}

// IsValidReference проверяет внешний номер платёжного документа: пустая
// строка допустима (номер генерируется сервисом), непустая состоит из букв,
// цифр и дефисов длиной не более 100 символов.
func IsValidReference(ref string) bool {
	if ref == "" {
		return true
	}
	if len(ref) > 100 {
		return false
	}
	for _, ch := range ref {
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
			return false
		}
	}
	return true
}
