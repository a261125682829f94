package history

import "profile-registry/internal/domain"

// Annotate pairs every profile field of a version with its classification.
// Fields outside the change set report the version's own value on both sides.
func Annotate(entry domain.VersionEntry) []domain.FieldDiff {
	diffs := make([]domain.FieldDiff, 0, len(domain.ProfileFields))
	for _, field := range domain.ProfileFields {
		change := ClassifyEntry(entry, field)

		oldValue := entry.ProfileData.Get(field)
		newValue := oldValue
		if change != domain.ChangeUnchanged {
			oldValue = entry.ChangeInfo.OldValues.Get(field)
			newValue = entry.ChangeInfo.NewValues.Get(field)
		}

		diffs = append(diffs, domain.FieldDiff{
			Field:  field,
			Old:    oldValue,
			New:    newValue,
			Change: change,
		})
	}
	return diffs
}

// AnnotateAll annotates a timeline, preserving its order.
func AnnotateAll(entries []domain.VersionEntry) []domain.AnnotatedVersion {
	out := make([]domain.AnnotatedVersion, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.AnnotatedVersion{
			VersionEntry: e,
			Fields:       Annotate(e),
		})
	}
	return out
}

// Diff computes the change data for an update from before to after. Only fields
// whose values differ are included; fields missing from after are left untouched.
func Diff(before, after domain.ProfileSnapshot) domain.ChangeInfo {
	ci := domain.ChangeInfo{
		ChangedFields: []domain.FieldName{},
		OldValues:     domain.ProfileSnapshot{},
		NewValues:     domain.ProfileSnapshot{},
	}

	for _, field := range domain.ProfileFields {
		if !after.Has(field) {
			continue
		}
		oldValue, newValue := before.Get(field), after.Get(field)
		if oldValue.Equal(newValue) {
			continue
		}
		ci.ChangedFields = append(ci.ChangedFields, field)
		ci.OldValues[field] = oldValue
		ci.NewValues[field] = newValue
	}

	return ci
}
