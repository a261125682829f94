package domain

import "time"

// Classification describes how a field changed between two snapshots.
type Classification string

const (
	ChangeUnchanged Classification = "unchanged"
	ChangeAdded     Classification = "added"
	ChangeRemoved   Classification = "removed"
	ChangeModified  Classification = "modified"
)

// ChangeInfo is the change carried by a version: the fields it touched and
// their values before and after.
type ChangeInfo struct {
	ChangedFields []FieldName     `json:"changed_fields"`
	OldValues     ProfileSnapshot `json:"old_values"`
	NewValues     ProfileSnapshot `json:"new_values"`
}

func (c ChangeInfo) Changed(field FieldName) bool {
	for _, f := range c.ChangedFields {
		if f == field {
			return true
		}
	}
	return false
}

// VersionEntry is one reconstructed point in a profile's timeline.
type VersionEntry struct {
	Version     int             `json:"version"`
	ProfileData ProfileSnapshot `json:"profile_data"`
	Timestamp   time.Time       `json:"timestamp"`
	ChangeInfo  ChangeInfo      `json:"change_info"`
}

// HistoryStatus is the outcome of a reconstruction.
type HistoryStatus string

const (
	HistoryBuilt  HistoryStatus = "built"
	HistoryEmpty  HistoryStatus = "empty"
	HistoryFailed HistoryStatus = "failed"
)

// History is a reconstructed timeline. Versions run from version N down to
// version 1, the newest edit, and are empty unless Status is built.
type History struct {
	Status   HistoryStatus    `json:"status"`
	Metadata *ProfileMetadata `json:"metadata,omitempty"`
	Versions []VersionEntry   `json:"versions"`
	BuiltAt  time.Time        `json:"built_at"`
}

// FieldDiff pairs one field's old and new values with their classification.
type FieldDiff struct {
	Field  FieldName      `json:"field"`
	Old    FieldValue     `json:"old"`
	New    FieldValue     `json:"new"`
	Change Classification `json:"change"`
}

type AnnotatedVersion struct {
	VersionEntry
	Fields []FieldDiff `json:"fields"`
}

type AnnotatedHistory struct {
	Status   HistoryStatus      `json:"status"`
	Metadata *ProfileMetadata   `json:"metadata,omitempty"`
	Versions []AnnotatedVersion `json:"versions"`
	BuiltAt  time.Time          `json:"built_at"`
}
