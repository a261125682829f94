package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-kivik/kivik/v4/driver"
	"github.com/go-kivik/kivik/v4/mockdb"
	"github.com/stretchr/testify/suite"

	"profile-registry/internal/domain"
)

type couchStatusError int

func (e couchStatusError) Error() string   { return http.StatusText(int(e)) }
func (e couchStatusError) HTTPStatus() int { return int(e) }

type CouchProfileRepositorySuite struct {
	suite.Suite
	mock *mockdb.Client
	db   *mockdb.DB
	repo *couchProfileRepo
	now  time.Time
}

func TestCouchProfileRepositorySuite(t *testing.T) {
	suite.Run(t, new(CouchProfileRepositorySuite))
}

func (s *CouchProfileRepositorySuite) SetupTest() {
	client, mock := mockdb.NewT(s.T())
	s.mock = mock
	s.db = mock.NewDB()
	mock.ExpectDB().WithName("profiles").WillReturn(s.db)

	s.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.repo = NewCouchProfileRepository(client, "profiles").(*couchProfileRepo)
	s.repo.now = func() time.Time { return s.now }
}

func (s *CouchProfileRepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *CouchProfileRepositorySuite) existing() *profileDoc {
	return &profileDoc{
		Rev:    "2-abc",
		Type:   docTypeProfile,
		FileID: "f-1",
		ProfileData: domain.ProfileSnapshot{
			domain.FieldCompanyName: domain.Scalar("Acme"),
			domain.FieldLocation:    domain.Scalar("NY"),
		},
		Metadata: domain.ProfileMetadata{
			FileID:      "f-1",
			Version:     2,
			ProfileHash: "h",
			Timestamp:   s.now.Add(-24 * time.Hour),
		},
	}
}

func (s *CouchProfileRepositorySuite) rows(docs ...interface{}) *mockdb.Rows {
	rows := mockdb.NewRows()
	for i, doc := range docs {
		body, err := json.Marshal(doc)
		s.Require().NoError(err)
		rows.AddRow(&driver.Row{ID: fmt.Sprintf("doc-%d", i), Doc: strings.NewReader(string(body))})
	}
	return rows
}

func (s *CouchProfileRepositorySuite) editID() string {
	return fmt.Sprintf("edit:f-1:%d", s.now.UnixNano())
}

func (s *CouchProfileRepositorySuite) TestFetchCurrentPicksNewest() {
	older := s.existing()
	older.FileID = "f-0"
	older.Metadata.FileID = "f-0"
	older.Metadata.Timestamp = s.now.Add(-72 * time.Hour)

	s.db.ExpectFind().WillReturn(s.rows(older, s.existing()))

	current, err := s.repo.FetchCurrent(context.Background())
	s.Require().NoError(err)
	s.Equal("f-1", current.Metadata.FileID)
	s.Equal(domain.Scalar("NY"), current.ProfileData.Get(domain.FieldLocation))
}

func (s *CouchProfileRepositorySuite) TestFetchCurrentEmpty() {
	s.db.ExpectFind().WillReturn(mockdb.NewRows())

	_, err := s.repo.FetchCurrent(context.Background())
	s.ErrorIs(err, ErrProfileNotFound)
}

func (s *CouchProfileRepositorySuite) TestFetchCurrentUnavailable() {
	s.db.ExpectFind().WillReturnError(couchStatusError(http.StatusInternalServerError))

	_, err := s.repo.FetchCurrent(context.Background())
	s.True(IsTransportError(err))
}

func (s *CouchProfileRepositorySuite) TestFetchEditHistoryNewestFirst() {
	edit := func(seq int64, field domain.FieldName) *editDoc {
		return &editDoc{
			Type:   docTypeEdit,
			FileID: "f-1",
			Seq:    seq,
			Record: domain.EditRecord{
				ChangedFields: []domain.FieldName{field},
				ChangedAt:     s.now.Add(time.Duration(seq) * time.Hour),
			},
		}
	}

	s.db.ExpectGet().WithDocID("profile:f-1").WillReturn(mockdb.DocumentT(s.T(), s.existing()))
	s.db.ExpectFind().WillReturn(s.rows(
		edit(1, domain.FieldCompanyName),
		edit(3, domain.FieldLocation),
		edit(2, domain.FieldSize),
	))

	history, err := s.repo.FetchEditHistory(context.Background(), "f-1")
	s.Require().NoError(err)

	s.Require().Len(history.EditHistory, 3)
	s.Equal([]domain.FieldName{domain.FieldLocation}, history.EditHistory[0].ChangedFields)
	s.Equal([]domain.FieldName{domain.FieldSize}, history.EditHistory[1].ChangedFields)
	s.Equal([]domain.FieldName{domain.FieldCompanyName}, history.EditHistory[2].ChangedFields)
	s.Equal("f-1", history.Metadata.FileID)
}

func (s *CouchProfileRepositorySuite) TestFetchEditHistoryMissingProfile() {
	s.db.ExpectGet().WithDocID("profile:f-9").WillReturnError(couchStatusError(http.StatusNotFound))

	_, err := s.repo.FetchEditHistory(context.Background(), "f-9")
	s.ErrorIs(err, ErrProfileNotFound)
}

func (s *CouchProfileRepositorySuite) TestSubmitCreatesFirstVersion() {
	var putID string
	s.db.ExpectFind().WillReturn(mockdb.NewRows())
	s.db.ExpectPut().WillExecute(func(_ context.Context, docID string, _ interface{}, _ driver.Options) (string, error) {
		putID = docID
		return "1-a", nil
	})

	meta, err := s.repo.Submit(context.Background(), domain.ProfileSnapshot{domain.FieldCompanyName: domain.Scalar("Acme")})
	s.Require().NoError(err)

	s.Equal(1, meta.Version)
	s.NotEmpty(meta.FileID)
	s.NotEmpty(meta.ProfileHash)
	s.Equal(s.now, meta.Timestamp)
	s.Equal("profile:"+meta.FileID, putID)
}

func (s *CouchProfileRepositorySuite) TestSubmitAppendsEditThenUpdatesProfile() {
	var (
		edit    *editDoc
		profile *profileDoc
	)
	s.db.ExpectFind().WillReturn(s.rows(s.existing()))
	s.db.ExpectPut().WithDocID(s.editID()).WillExecute(func(_ context.Context, _ string, doc interface{}, _ driver.Options) (string, error) {
		edit = doc.(*editDoc)
		return "1-e", nil
	})
	s.db.ExpectPut().WithDocID("profile:f-1").WillExecute(func(_ context.Context, _ string, doc interface{}, _ driver.Options) (string, error) {
		profile = doc.(*profileDoc)
		return "3-x", nil
	})

	meta, err := s.repo.Submit(context.Background(), domain.ProfileSnapshot{domain.FieldLocation: domain.Scalar("SF")})
	s.Require().NoError(err)

	s.Equal(3, meta.Version)
	s.Equal(s.now, meta.Timestamp)

	s.Require().NotNil(edit)
	s.Equal([]domain.FieldName{domain.FieldLocation}, edit.Record.ChangedFields)
	s.Equal(domain.Scalar("NY"), edit.Record.OldValues.Get(domain.FieldLocation))
	s.Equal(domain.Scalar("SF"), edit.Record.NewValues.Get(domain.FieldLocation))

	s.Require().NotNil(profile)
	s.Equal("2-abc", profile.Rev)
	s.Equal(domain.Scalar("SF"), profile.ProfileData.Get(domain.FieldLocation))
	s.Equal(domain.Scalar("Acme"), profile.ProfileData.Get(domain.FieldCompanyName))
}

func (s *CouchProfileRepositorySuite) TestSubmitUnchangedWritesNothing() {
	s.db.ExpectFind().WillReturn(s.rows(s.existing()))

	meta, err := s.repo.Submit(context.Background(), domain.ProfileSnapshot{domain.FieldLocation: domain.Scalar("NY")})
	s.Require().NoError(err)
	s.Equal(2, meta.Version)
}

func (s *CouchProfileRepositorySuite) TestSubmitProfileWriteFailureRemovesEdit() {
	tests := []struct {
		name     string
		status   int
		conflict bool
	}{
		{name: "conflict", status: http.StatusConflict, conflict: true},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			s.db.ExpectFind().WillReturn(s.rows(s.existing()))
			s.db.ExpectPut().WithDocID(s.editID()).WillReturn("1-e")
			s.db.ExpectPut().WithDocID("profile:f-1").WillReturnError(couchStatusError(tt.status))
			s.db.ExpectDelete().WithDocID(s.editID()).WillReturn("2-e")

			_, err := s.repo.Submit(context.Background(), domain.ProfileSnapshot{domain.FieldLocation: domain.Scalar("SF")})
			s.Require().Error(err)

			s.Equal(tt.conflict, errors.Is(err, ErrProfileConflict))
			s.Equal(!tt.conflict, IsTransportError(err))
			s.NoError(s.mock.ExpectationsWereMet())
		})
	}
}
