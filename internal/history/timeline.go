package history

import "profile-registry/internal/domain"

// Build reconstructs the version timeline of a profile.
//
// current is the registry's latest snapshot; a nil snapshot means no profile
// exists and yields no versions. edits must be newest first. Version numbers are
// assigned in input order (1 = newest edit) and the assembled sequence is then
// reversed, so the returned slice starts at version N and ends at version 1.
//
// With no edits a single bootstrap version is synthesized by diffing the
// all-empty baseline against current.
func Build(current domain.ProfileSnapshot, edits []domain.EditRecord, meta domain.ProfileMetadata) []domain.VersionEntry {
	if current == nil {
		return nil
	}

	var entries []domain.VersionEntry
	if len(edits) == 0 {
		entries = []domain.VersionEntry{bootstrap(current, meta)}
	} else {
		entries = replay(current, edits)
	}

	reverse(entries)
	return entries
}

// replay walks the edits newest first. Each version's snapshot is the record's
// new values over the last known full state; stepping to the next (older) record
// rolls that state back with the record's old values.
func replay(current domain.ProfileSnapshot, edits []domain.EditRecord) []domain.VersionEntry {
	entries := make([]domain.VersionEntry, 0, len(edits))
	known := current.Clone()

	for i, rec := range edits {
		ci := changeInfo(rec)
		profile := known.Merge(ci.NewValues)

		entries = append(entries, domain.VersionEntry{
			Version:     i + 1,
			ProfileData: profile,
			Timestamp:   rec.ChangedAt,
			ChangeInfo:  ci,
		})

		known = profile.Merge(ci.OldValues)
	}

	return entries
}

func bootstrap(current domain.ProfileSnapshot, meta domain.ProfileMetadata) domain.VersionEntry {
	return domain.VersionEntry{
		Version:     1,
		ProfileData: current.Clone(),
		Timestamp:   meta.Timestamp,
		ChangeInfo: domain.ChangeInfo{
			ChangedFields: current.Fields(),
			OldValues:     domain.EmptySnapshot(),
			NewValues:     current.Clone(),
		},
	}
}

// changeInfo copies a record's change data. A changed field missing from either
// side is filled with null so partial records still render.
func changeInfo(rec domain.EditRecord) domain.ChangeInfo {
	changed := make([]domain.FieldName, 0, len(rec.ChangedFields))
	for _, f := range rec.ChangedFields {
		if domain.IsProfileField(f) {
			changed = append(changed, f)
		}
	}

	oldValues := cloneOrEmpty(rec.OldValues)
	newValues := cloneOrEmpty(rec.NewValues)
	for _, f := range changed {
		if !oldValues.Has(f) {
			oldValues[f] = domain.Null()
		}
		if !newValues.Has(f) {
			newValues[f] = domain.Null()
		}
	}

	return domain.ChangeInfo{
		ChangedFields: changed,
		OldValues:     oldValues,
		NewValues:     newValues,
	}
}

func cloneOrEmpty(s domain.ProfileSnapshot) domain.ProfileSnapshot {
	if s == nil {
		return domain.ProfileSnapshot{}
	}
	return s.Clone()
}

func reverse(entries []domain.VersionEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
