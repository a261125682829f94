package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-registry/internal/domain"
)

func TestAnnotate(t *testing.T) {
	entry := domain.VersionEntry{
		Version: 3,
		ProfileData: domain.ProfileSnapshot{
			domain.FieldCompanyName: domain.Scalar("Acme"),
			domain.FieldLocation:    domain.Scalar("SF"),
			domain.FieldRevenue:     domain.Scalar(""),
		},
		ChangeInfo: domain.ChangeInfo{
			ChangedFields: []domain.FieldName{domain.FieldLocation, domain.FieldRevenue},
			OldValues: domain.ProfileSnapshot{
				domain.FieldLocation: domain.Scalar("NY"),
				domain.FieldRevenue:  domain.Scalar("5M"),
			},
			NewValues: domain.ProfileSnapshot{
				domain.FieldLocation: domain.Scalar("SF"),
				domain.FieldRevenue:  domain.Scalar(""),
			},
		},
	}

	diffs := Annotate(entry)
	require.Len(t, diffs, len(domain.ProfileFields))

	byField := make(map[domain.FieldName]domain.FieldDiff, len(diffs))
	for _, d := range diffs {
		byField[d.Field] = d
	}

	assert.Equal(t, domain.ChangeUnchanged, byField[domain.FieldCompanyName].Change)
	assert.Equal(t, domain.Scalar("Acme"), byField[domain.FieldCompanyName].Old)
	assert.Equal(t, domain.Scalar("Acme"), byField[domain.FieldCompanyName].New)

	assert.Equal(t, domain.ChangeModified, byField[domain.FieldLocation].Change)
	assert.Equal(t, domain.Scalar("NY"), byField[domain.FieldLocation].Old)

	assert.Equal(t, domain.ChangeRemoved, byField[domain.FieldRevenue].Change)
	assert.True(t, byField[domain.FieldContact].New.IsNull())
	assert.Equal(t, domain.FieldCompanyName, diffs[0].Field)
}

func TestAnnotateAll_PreservesOrder(t *testing.T) {
	entries := []domain.VersionEntry{{Version: 2}, {Version: 1}}

	annotated := AnnotateAll(entries)

	require.Len(t, annotated, 2)
	assert.Equal(t, 2, annotated[0].Version)
	assert.Equal(t, 1, annotated[1].Version)
}

func TestDiff(t *testing.T) {
	before := domain.ProfileSnapshot{
		domain.FieldCompanyName:    domain.Scalar("Acme"),
		domain.FieldLocation:       domain.Scalar("NY"),
		domain.FieldPartnerships:   domain.List("globex"),
		domain.FieldCertifications: domain.List("iso-9001"),
	}
	after := domain.ProfileSnapshot{
		domain.FieldCompanyName:  domain.Scalar("Acme"),
		domain.FieldLocation:     domain.Scalar("SF"),
		domain.FieldPartnerships: domain.List("globex", "initech"),
		domain.FieldSize:         domain.Scalar("50"),
	}

	ci := Diff(before, after)

	assert.Equal(t, []domain.FieldName{domain.FieldLocation, domain.FieldSize, domain.FieldPartnerships}, ci.ChangedFields)
	assert.Equal(t, domain.Scalar("NY"), ci.OldValues.Get(domain.FieldLocation))
	assert.True(t, ci.OldValues.Get(domain.FieldSize).IsNull())
	assert.Equal(t, domain.List("globex", "initech"), ci.NewValues.Get(domain.FieldPartnerships))
	assert.False(t, ci.Changed(domain.FieldCertifications))
}

func TestDiff_NoChanges(t *testing.T) {
	s := domain.ProfileSnapshot{domain.FieldCompanyName: domain.Scalar("Acme")}

	ci := Diff(s, s.Clone())

	assert.Empty(t, ci.ChangedFields)
	assert.Empty(t, ci.NewValues)
}
