package workflow

import (
	"fmt"
	"strings"
)

// normalizeSegment uppercases a code segment and strips whitespace.
func normalizeSegment(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// FormatKodeMR builds a human document code for a material request,
// e.g. "LOG-JKT-0007". Codes are generated once and never reused.
func FormatKodeMR(department, site string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", normalizeSegment(department), normalizeSegment(site), seq)
}

// FormatKodePO builds a human document code for a purchase order,
// e.g. "PO-JKT-0007".
func FormatKodePO(site string, seq int64) string {
	return fmt.Sprintf("PO-%s-%04d", normalizeSegment(site), seq)
}

// SequenceScopeMR is the sequence bucket for MR codes of one department+site.
func SequenceScopeMR(department, site string) string {
	return fmt.Sprintf("mr:%s-%s", normalizeSegment(department), normalizeSegment(site))
}

// SequenceScopePO is the sequence bucket for PO codes of one site.
func SequenceScopePO(site string) string {
	return fmt.Sprintf("po:%s", normalizeSegment(site))
}
