package demanddrafts

import (
	"fmt"
	"math"
	"strings"
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

func twoDigits(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}

func threeDigits(n int64) string {
	if n < 100 {
		return twoDigits(n)
	}
	s := ones[n/100] + " Hundred"
	if n%100 != 0 {
		s += " " + twoDigits(n%100)
	}
	return s
}

// indianWords spells n in the Indian numbering system. Crore groups
// recurse, so amounts beyond 99 crore read as e.g. "Two Thousand Crore".
func indianWords(n int64) string {
	if n >= 1e7 {
		s := indianWords(n/1e7) + " Crore"
		if rem := n % 1e7; rem > 0 {
			s += " " + indianWords(rem)
		}
		return s
	}
	var parts []string
	if lakh := n / 1e5; lakh > 0 {
		parts = append(parts, twoDigits(lakh), "Lakh")
	}
	if thousand := (n / 1e3) % 100; thousand > 0 {
		parts = append(parts, twoDigits(thousand), "Thousand")
	}
	if rest := n % 1e3; rest > 0 {
		parts = append(parts, threeDigits(rest))
	}
	return strings.Join(parts, " ")
}

// AmountInWords renders an amount as words in the Indian numbering
// system (crore, lakh, thousand), with paise when present.
// 1234567.50 becomes "Twelve Lakh Thirty Four Thousand Five Hundred
// Sixty Seven Rupees and Fifty Paise Only".
func AmountInWords(amount float64) string {
	if amount < 0 {
		amount = 0
	}
	rupees := int64(math.Floor(amount))
	paise := int64(math.Round((amount - float64(rupees)) * 100))
	if paise >= 100 {
		rupees++
		paise -= 100
	}

	words := "Zero"
	if rupees > 0 {
		words = indianWords(rupees)
	}
	words += " Rupees"
	if paise > 0 {
		words += " and " + twoDigits(paise) + " Paise"
	}
	return words + " Only"
}

// FormatIndian renders an amount with Indian digit grouping:
// 1234567.89 becomes "12,34,567.89".
func FormatIndian(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := fmt.Sprintf("%.2f", amount)
	intPart := s[:len(s)-3]
	fracPart := s[len(s)-2:]

	if len(intPart) > 3 {
		head := intPart[:len(intPart)-3]
		tail := intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		intPart = strings.Join(groups, ",") + "," + tail
	}
	out := intPart + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
