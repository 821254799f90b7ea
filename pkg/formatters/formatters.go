package formatters

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// FormatCurrency renders an amount in Brazilian reais, e.g. "R$ 1.234,56".
// Non-finite values render as zero.
func FormatCurrency(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "R$ 0,00"
	}
	return FormatCurrencyDecimal(decimal.NewFromFloat(value))
}

// FormatCurrencyDecimal renders a decimal amount in Brazilian reais
func FormatCurrencyDecimal(value decimal.Decimal) string {
	sign := ""
	if value.IsNegative() {
		sign = "-"
		value = value.Neg()
	}

	fixed := value.StringFixed(2)
	integer, fraction, _ := strings.Cut(fixed, ".")
	return sign + "R$ " + groupThousands(integer) + "," + fraction
}

// FormatNumber renders an integer with dot thousand separators
func FormatNumber(value int64) string {
	if value < 0 {
		return "-" + groupThousands(strconv.FormatInt(-value, 10))
	}
	return groupThousands(strconv.FormatInt(value, 10))
}

// FormatPercent renders a percentage with a comma decimal separator, e.g. "8,50%"
func FormatPercent(value float64, places int32) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	return strings.Replace(decimal.NewFromFloat(value).StringFixed(places), ".", ",", 1) + "%"
}

// FormatDate renders a date as dd/mm/yyyy
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatTime renders a time of day as hh:mm:ss
func FormatTime(t time.Time) string {
	return t.Format("15:04:05")
}

// MaskCurrency treats the digits of the input as cents, e.g. "123456" becomes "R$ 1.234,56"
func MaskCurrency(value string) string {
	digits := Digits(value)
	if digits == "" {
		return "R$ 0,00"
	}

	cents, err := decimal.NewFromString(digits)
	if err != nil || cents.IsZero() {
		return "R$ 0,00"
	}
	return FormatCurrencyDecimal(cents.Shift(-2))
}

// MaskCPF progressively formats up to 11 digits as XXX.XXX.XXX-XX
func MaskCPF(value string) string {
	digits := Digits(value)
	if len(digits) > 11 {
		digits = digits[:11]
	}

	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return digits[:3] + "." + digits[3:]
	case len(digits) <= 9:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:]
	default:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	}
}

// FormatCPF formats a CPF. Unlike MaskCPF it leaves empty input empty.
func FormatCPF(value string) string {
	if value == "" {
		return ""
	}
	return MaskCPF(value)
}

// MaskPhone progressively formats up to 11 digits as (XX) XXXXX-XXXX
func MaskPhone(value string) string {
	digits := Digits(value)
	if len(digits) > 11 {
		digits = digits[:11]
	}

	switch {
	case len(digits) <= 2:
		return digits
	case len(digits) <= 7:
		return "(" + digits[:2] + ") " + digits[2:]
	default:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	}
}

// FormatPhone formats a phone number, keeping the opening parenthesis for short input
func FormatPhone(value string) string {
	if value == "" {
		return ""
	}
	digits := Digits(value)
	if len(digits) <= 2 {
		return "(" + digits
	}
	return MaskPhone(digits)
}

// ValidateCPF checks length, repeated digits and both mod-11 check digits
func ValidateCPF(cpf string) bool {
	digits := Digits(cpf)
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return false
	}

	return cpfCheckDigit(digits[:9]) == int(digits[9]-'0') &&
		cpfCheckDigit(digits[:10]) == int(digits[10]-'0')
}

func cpfCheckDigit(prefix string) int {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	remainder := (sum * 10) % 11
	if remainder == 10 {
		remainder = 0
	}
	return remainder
}

// ValidateEmail checks an address with the validator email rule
func ValidateEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// ValidatePhone accepts 10 or 11 digit Brazilian phone numbers
func ValidatePhone(phone string) bool {
	n := len(Digits(phone))
	return n == 10 || n == 11
}

// ValidateCEP accepts 8 digit postal codes
func ValidateCEP(cep string) bool {
	return len(Digits(cep)) == 8
}

// Digits strips everything but ASCII digits
func Digits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

func groupThousands(integer string) string {
	if len(integer) <= 3 {
		return integer
	}

	var b strings.Builder
	lead := len(integer) % 3
	if lead > 0 {
		b.WriteString(integer[:lead])
	}
	for i := lead; i < len(integer); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(integer[i : i+3])
	}
	return b.String()
}
