package services

import "strings"

// 列名の候補（優先順）
var (
	DateColumnCandidates     = []string{"Date"}
	DemandColumnCandidates   = []string{"Order_Demand"}
	ProductColumnCandidates  = []string{"Product_ID", "Product_Code", "Product_Category"}
	CustomerColumnCandidates = []string{"Customer_ID"}
)

// resolveColumn returns the index and name of the first candidate present in header.
// Candidates are tried in priority order; header matching is case-insensitive.
func resolveColumn(header []string, candidates []string) (int, string) {
	for _, candidate := range candidates {
		for i, item := range header {
			if strings.EqualFold(normalizeHeaderCell(item), candidate) {
				return i, candidate
			}
		}
	}
	return -1, ""
}

// normalizeHeaderCell BOMと前後の空白を除去
func normalizeHeaderCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
}
