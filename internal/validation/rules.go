// Package validation содержит декларативную валидацию POS-данных
// и проверки идентификаторов.
package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RuleType тип правила валидации
type RuleType string

const (
	RuleRequired RuleType = "required"
	RuleEmail    RuleType = "email"
	RuleNumber   RuleType = "number"
	RulePositive RuleType = "positive"
	RuleLength   RuleType = "length"
	RulePattern  RuleType = "pattern"
)

// EmailPattern намеренно простая проверка email, не RFC 5322
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PhonePattern номер телефона: необязательный "+", затем не меньше 10 цифр,
// пробелов, точек, дефисов или скобок
var PhonePattern = regexp.MustCompile(`^\+?[0-9\s.\-()]{10,}$`)

// Rule правило для одного поля.
// Length используется только RuleLength (точное совпадение длины),
// Pattern только RulePattern.
type Rule struct {
	Pattern *regexp.Regexp
	Field   string
	Type    RuleType
	Message string
	Length  int
}

// Result результат валидации. Ошибки идут в порядке правил.
type Result struct {
	Errors  []string `json:"errors"`
	IsValid bool     `json:"is_valid"`
}

// Validate проверяет данные по всем правилам независимо (без short-circuit).
// Ошибки валидации возвращаются как данные, а не как error.
func Validate(data map[string]any, rules []Rule) Result {
	errs := make([]string, 0)

	for _, rule := range rules {
		if !rule.check(data[rule.Field]) {
			errs = append(errs, rule.Message)
		}
	}

	return Result{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// check возвращает true, если значение проходит правило.
// Все правила кроме required пропускают отсутствующее значение.
func (r Rule) check(value any) bool {
	if r.Type == RuleRequired {
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s) != ""
		}
		return present(value)
	}

	if !present(value) {
		return true
	}

	switch r.Type {
	case RuleEmail:
		return EmailPattern.MatchString(toString(value))
	case RuleNumber:
		_, ok := toNumber(value)
		return ok
	case RulePositive:
		// нечисловые значения проверяет RuleNumber
		n, ok := toNumber(value)
		return !ok || n > 0
	case RuleLength:
		return length(value) == r.Length
	case RulePattern:
		return r.Pattern != nil && r.Pattern.MatchString(toString(value))
	default:
		return true
	}
}

// present: значение считается заданным, если оно не nil, не false,
// не пустая строка и не числовой ноль
func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}

	if n, ok := numericValue(value); ok {
		return n != 0
	}

	return true
}

// toNumber приводит значение к числу; строки парсятся после обрезки пробелов
func toNumber(value any) (float64, bool) {
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return numericValue(value)
}

func numericValue(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if n, ok := numericValue(value); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// length длина строки в символах или количество элементов коллекции
func length(value any) int {
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return len(toString(value))
	}
}

// TransactionRules правила для транзакции POS
func TransactionRules() []Rule {
	return []Rule{
		{Field: "amount", Type: RuleRequired, Message: "Amount is required"},
		{Field: "amount", Type: RulePositive, Message: "Amount must be positive"},
		{Field: "paymentMethod", Type: RuleRequired, Message: "Payment method is required"},
		{Field: "items", Type: RuleRequired, Message: "Items are required"},
	}
}

// CustomerRules правила для данных клиента
func CustomerRules() []Rule {
	return []Rule{
		{Field: "name", Type: RuleRequired, Message: "Name is required"},
		{Field: "email", Type: RuleEmail, Message: "Invalid email format"},
		{Field: "phone", Type: RulePattern, Pattern: PhonePattern, Message: "Invalid phone number format"},
	}
}
