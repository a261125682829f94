package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-registry/internal/domain"
)

func edit(field domain.FieldName, oldValue, newValue string, at time.Time) domain.EditRecord {
	return domain.EditRecord{
		ChangedFields: []domain.FieldName{field},
		OldValues:     domain.ProfileSnapshot{field: domain.Scalar(oldValue)},
		NewValues:     domain.ProfileSnapshot{field: domain.Scalar(newValue)},
		ChangedAt:     at,
	}
}

func TestBuild_BootstrapSingleField(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	current := domain.ProfileSnapshot{domain.FieldCompanyName: domain.Scalar("Acme")}

	versions := Build(current, nil, domain.ProfileMetadata{Timestamp: createdAt})

	require.Len(t, versions, 1)
	v := versions[0]
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, createdAt, v.Timestamp)
	assert.Equal(t, []domain.FieldName{domain.FieldCompanyName}, v.ChangeInfo.ChangedFields)
	assert.Equal(t, domain.Scalar(""), v.ChangeInfo.OldValues.Get(domain.FieldCompanyName))
	assert.Equal(t, domain.Scalar("Acme"), v.ChangeInfo.NewValues.Get(domain.FieldCompanyName))
	assert.Equal(t, domain.ChangeAdded, ClassifyEntry(v, domain.FieldCompanyName))
}

func TestBuild_BootstrapCoversEveryPresentField(t *testing.T) {
	current := domain.ProfileSnapshot{
		domain.FieldSalesChannels: domain.List("direct"),
		domain.FieldCompanyName:   domain.Scalar("Acme"),
		domain.FieldRevenue:       domain.Scalar(""),
	}

	versions := Build(current, []domain.EditRecord{}, domain.ProfileMetadata{})

	require.Len(t, versions, 1)
	assert.Equal(t, current.Fields(), versions[0].ChangeInfo.ChangedFields)
	assert.Equal(t, []domain.FieldName{domain.FieldCompanyName, domain.FieldRevenue, domain.FieldSalesChannels},
		versions[0].ChangeInfo.ChangedFields)
	assert.Equal(t, domain.EmptySnapshot(), versions[0].ChangeInfo.OldValues)
	assert.Equal(t, current, versions[0].ChangeInfo.NewValues)
}

func TestBuild_EditsAreNumberedThenReversed(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	current := domain.ProfileSnapshot{
		domain.FieldCompanyName: domain.Scalar("Acme"),
		domain.FieldLocation:    domain.Scalar("SF"),
	}
	edits := []domain.EditRecord{
		edit(domain.FieldLocation, "NY", "SF", t2),
		edit(domain.FieldCompanyName, "", "Acme", t1),
	}

	versions := Build(current, edits, domain.ProfileMetadata{})

	require.Len(t, versions, 2)

	// version 1 is the newest edit and ends up last
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, []domain.FieldName{domain.FieldCompanyName}, versions[0].ChangeInfo.ChangedFields)
	assert.Equal(t, t1, versions[0].Timestamp)

	assert.Equal(t, 1, versions[1].Version)
	assert.Equal(t, []domain.FieldName{domain.FieldLocation}, versions[1].ChangeInfo.ChangedFields)
	assert.Equal(t, t2, versions[1].Timestamp)
}

func TestBuild_EveryVersionCarriesFullSnapshot(t *testing.T) {
	current := domain.ProfileSnapshot{
		domain.FieldCompanyName: domain.Scalar("Acme"),
		domain.FieldLocation:    domain.Scalar("SF"),
		domain.FieldContact:     domain.Scalar("ops@acme.test"),
	}
	edits := []domain.EditRecord{
		edit(domain.FieldLocation, "NY", "SF", time.Time{}),
		edit(domain.FieldCompanyName, "", "Acme", time.Time{}),
	}

	versions := Build(current, edits, domain.ProfileMetadata{})

	require.Len(t, versions, 2)
	assert.Equal(t, domain.ProfileSnapshot{
		domain.FieldCompanyName: domain.Scalar("Acme"),
		domain.FieldLocation:    domain.Scalar("NY"),
		domain.FieldContact:     domain.Scalar("ops@acme.test"),
	}, versions[0].ProfileData)
	assert.Equal(t, current, versions[1].ProfileData)
}

func TestBuild_VersionNumbersAreContiguous(t *testing.T) {
	current := domain.ProfileSnapshot{domain.FieldRevenue: domain.Scalar("10")}

	for n := 1; n <= 12; n++ {
		t.Run(fmt.Sprintf("%d edits", n), func(t *testing.T) {
			edits := make([]domain.EditRecord, n)
			for i := range edits {
				edits[i] = edit(domain.FieldRevenue, fmt.Sprint(n-i-1), fmt.Sprint(n-i), time.Time{})
			}

			versions := Build(current, edits, domain.ProfileMetadata{})

			require.Len(t, versions, n)
			seen := make(map[int]bool, n)
			for idx, v := range versions {
				assert.Equal(t, n-idx, v.Version)
				assert.False(t, seen[v.Version], "duplicate version %d", v.Version)
				seen[v.Version] = true
			}
		})
	}
}

func TestBuild_NoProfile(t *testing.T) {
	versions := Build(nil, []domain.EditRecord{edit(domain.FieldSize, "1", "2", time.Time{})}, domain.ProfileMetadata{})
	assert.Empty(t, versions)
}

func TestBuild_Idempotent(t *testing.T) {
	current := domain.ProfileSnapshot{
		domain.FieldCompanyName:    domain.Scalar("Acme"),
		domain.FieldMarketSegments: domain.List("retail", "b2b"),
	}
	edits := []domain.EditRecord{
		{
			ChangedFields: []domain.FieldName{domain.FieldMarketSegments},
			OldValues:     domain.ProfileSnapshot{domain.FieldMarketSegments: domain.List("retail")},
			NewValues:     domain.ProfileSnapshot{domain.FieldMarketSegments: domain.List("retail", "b2b")},
		},
	}

	first := Build(current, edits, domain.ProfileMetadata{})
	second := Build(current, edits, domain.ProfileMetadata{})

	assert.Equal(t, first, second)
	assert.Equal(t, domain.ProfileSnapshot{
		domain.FieldCompanyName:    domain.Scalar("Acme"),
		domain.FieldMarketSegments: domain.List("retail", "b2b"),
	}, current, "input snapshot must not be mutated")
}

func TestBuild_MissingValuesDefaultToNull(t *testing.T) {
	current := domain.ProfileSnapshot{domain.FieldCompanyName: domain.Scalar("Acme")}
	edits := []domain.EditRecord{
		{
			ChangedFields: []domain.FieldName{domain.FieldCertifications},
			ChangedAt:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		edit(domain.FieldCompanyName, "", "Acme", time.Time{}),
	}

	versions := Build(current, edits, domain.ProfileMetadata{})

	require.Len(t, versions, 2)
	partial := versions[1]
	assert.Equal(t, 1, partial.Version)
	assert.True(t, partial.ChangeInfo.OldValues.Has(domain.FieldCertifications))
	assert.True(t, partial.ChangeInfo.OldValues.Get(domain.FieldCertifications).IsNull())
	assert.True(t, partial.ChangeInfo.NewValues.Get(domain.FieldCertifications).IsNull())
	assert.Equal(t, domain.ChangeAdded, ClassifyEntry(partial, domain.FieldCertifications))
	assert.Equal(t, domain.Scalar("Acme"), partial.ProfileData.Get(domain.FieldCompanyName))
}

func TestBuild_DropsUnknownChangedFields(t *testing.T) {
	current := domain.ProfileSnapshot{domain.FieldSize: domain.Scalar("50")}
	edits := []domain.EditRecord{
		{
			ChangedFields: []domain.FieldName{"logo_url", domain.FieldSize},
			OldValues:     domain.ProfileSnapshot{domain.FieldSize: domain.Scalar("10")},
			NewValues:     domain.ProfileSnapshot{domain.FieldSize: domain.Scalar("50")},
		},
	}

	versions := Build(current, edits, domain.ProfileMetadata{})

	require.Len(t, versions, 1)
	assert.Equal(t, []domain.FieldName{domain.FieldSize}, versions[0].ChangeInfo.ChangedFields)
}
