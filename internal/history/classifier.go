// Package history rebuilds a profile's version timeline from the registry's
// current snapshot and edit records, and classifies per-field changes.
package history

import "profile-registry/internal/domain"

// Classify labels one field of one version relative to its predecessor.
//
// The added check runs before removed, so a changed field that is empty on both
// sides classifies as added. Mismatched value kinds fall through to modified.
func Classify(changedFields []domain.FieldName, field domain.FieldName, oldValue, newValue domain.FieldValue) domain.Classification {
	if !contains(changedFields, field) {
		return domain.ChangeUnchanged
	}
	if oldValue.IsEmpty() {
		return domain.ChangeAdded
	}
	if newValue.IsEmpty() {
		return domain.ChangeRemoved
	}
	return domain.ChangeModified
}

// ClassifyEntry classifies field within a reconstructed version.
func ClassifyEntry(entry domain.VersionEntry, field domain.FieldName) domain.Classification {
	ci := entry.ChangeInfo
	return Classify(ci.ChangedFields, field, ci.OldValues.Get(field), ci.NewValues.Get(field))
}

func contains(fields []domain.FieldName, field domain.FieldName) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
