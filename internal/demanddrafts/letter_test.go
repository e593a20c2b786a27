package demanddrafts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "Zero Rupees Only"},
		{1, "One Rupees Only"},
		{19, "Nineteen Rupees Only"},
		{40, "Forty Rupees Only"},
		{105, "One Hundred Five Rupees Only"},
		{1000, "One Thousand Rupees Only"},
		{100000, "One Lakh Rupees Only"},
		{10000000, "One Crore Rupees Only"},
		{1234567, "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven Rupees Only"},
		{1234567.50, "Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven Rupees and Fifty Paise Only"},
		{25000000, "Two Crore Fifty Lakh Rupees Only"},
		{2e10, "Two Thousand Crore Rupees Only"},
		{12345678901, "One Thousand Two Hundred Thirty Four Crore Fifty Six Lakh Seventy Eight Thousand Nine Hundred One Rupees Only"},
		{1e14, "One Crore Crore Rupees Only"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, AmountInWords(tc.amount), "amount %v", tc.amount)
	}
}

func TestFormatIndian(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "0.00"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{100000, "1,00,000.00"},
		{1234567.89, "12,34,567.89"},
		{12345678, "1,23,45,678.00"},
		{-1234567.89, "-12,34,567.89"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatIndian(tc.amount), "amount %v", tc.amount)
	}
}

func sampleDraft() Draft {
	return Draft{
		RefNo:            "DD/2025/042",
		Date:             time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		PayeeName:        "Skyline Constructions Pvt Ltd",
		Amount:           1234567.50,
		BankName:         "State Bank of India",
		BranchName:       "MG Road",
		PurchaserName:    "R. Sharma",
		PurchaserAddress: "14 Lake View Road, Pune",
		Remarks:          "Towards tower B cement supply",
	}
}

func TestBuildTextContainsAllFields(t *testing.T) {
	out, err := BuildText(sampleDraft())
	require.NoError(t, err)

	for _, want := range []string{
		"DD/2025/042",
		"14 March 2025",
		"Skyline Constructions Pvt Ltd",
		"12,34,567.50",
		"Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven Rupees and Fifty Paise Only",
		"State Bank of India",
		"MG Road Branch",
		"R. Sharma",
		"14 Lake View Road, Pune",
		"Towards tower B cement supply",
	} {
		require.Contains(t, out, want)
	}
}

func TestBuildHTMLEscapes(t *testing.T) {
	draft := sampleDraft()
	draft.PayeeName = "<script>alert(1)</script>"
	out, err := BuildHTML(draft)
	require.NoError(t, err)
	require.NotContains(t, out, "<script>alert(1)</script>")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestBuildTextOmitsEmptyOptionals(t *testing.T) {
	draft := sampleDraft()
	draft.BranchName = ""
	draft.Remarks = ""
	draft.PurchaserAddress = ""
	out, err := BuildText(draft)
	require.NoError(t, err)
	require.NotContains(t, out, "Branch\n")
	require.NotContains(t, out, "Remarks:")
	require.False(t, strings.Contains(out, "Lake View"))
}

func TestRenderRequiresFields(t *testing.T) {
	draft := sampleDraft()
	draft.PayeeName = ""
	_, err := Render(draft)
	require.ErrorIs(t, err, ErrMissingField)

	draft = sampleDraft()
	draft.Amount = 0
	_, err = Render(draft)
	require.ErrorIs(t, err, ErrMissingField)
}

func TestRenderReturnsBothVariants(t *testing.T) {
	letter, err := Render(sampleDraft())
	require.NoError(t, err)
	require.Contains(t, letter.Text, "Demand Draft")
	require.Contains(t, letter.HTML, "<!DOCTYPE html>")
}
