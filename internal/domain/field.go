package domain

// FieldName is the JSON key of a profile field.
type FieldName string

const (
	FieldCompanyName         FieldName = "company_name"
	FieldLocation            FieldName = "location"
	FieldContact             FieldName = "contact"
	FieldSize                FieldName = "size"
	FieldEstablished         FieldName = "established"
	FieldRevenue             FieldName = "revenue"
	FieldMarketSegments      FieldName = "market_segments"
	FieldTechnologyFocus     FieldName = "technology_focus"
	FieldKeyMarkets          FieldName = "key_markets"
	FieldCustomerSegments    FieldName = "customer_segments"
	FieldCompetitivePosition FieldName = "competitive_position"
	FieldPartnerships        FieldName = "partnerships"
	FieldCertifications      FieldName = "certifications"
	FieldSalesChannels       FieldName = "sales_channels"
)

// ProfileFields is the canonical field order used for display and bootstrap diffs.
var ProfileFields = []FieldName{
	FieldCompanyName,
	FieldLocation,
	FieldContact,
	FieldSize,
	FieldEstablished,
	FieldRevenue,
	FieldMarketSegments,
	FieldTechnologyFocus,
	FieldKeyMarkets,
	FieldCustomerSegments,
	FieldCompetitivePosition,
	FieldPartnerships,
	FieldCertifications,
	FieldSalesChannels,
}

var profileFieldIndex = func() map[FieldName]int {
	idx := make(map[FieldName]int, len(ProfileFields))
	for i, f := range ProfileFields {
		idx[f] = i
	}
	return idx
}()

// IsProfileField reports whether name is one of ProfileFields.
func IsProfileField(name FieldName) bool {
	_, ok := profileFieldIndex[name]
	return ok
}

// NormalizeFieldNames drops unknown and duplicate names and keeps the first occurrence order.
func NormalizeFieldNames(names []string) []FieldName {
	out := make([]FieldName, 0, len(names))
	seen := make(map[FieldName]bool, len(names))
	for _, n := range names {
		f := FieldName(n)
		if !IsProfileField(f) || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
