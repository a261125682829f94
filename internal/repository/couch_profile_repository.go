package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"profile-registry/internal/domain"
	"profile-registry/internal/history"
	"profile-registry/pkg/hash"

	"github.com/go-kivik/kivik/v4"
	"github.com/google/uuid"
)

const (
	docTypeProfile = "profile"
	docTypeEdit    = "edit"
)

type profileDoc struct {
	Rev         string                 `json:"_rev,omitempty"`
	Type        string                 `json:"type"`
	FileID      string                 `json:"file_id"`
	ProfileData domain.ProfileSnapshot `json:"profile_data"`
	Metadata    domain.ProfileMetadata `json:"metadata"`
}

type editDoc struct {
	Type   string            `json:"type"`
	FileID string            `json:"file_id"`
	Seq    int64             `json:"seq"`
	Record domain.EditRecord `json:"record"`
}

type couchProfileRepo struct {
	db  *kivik.DB
	now func() time.Time
}

// NewCouchProfileRepository keeps the registry in CouchDB: one document per
// profile plus an append-only edit document per update.
func NewCouchProfileRepository(client *kivik.Client, dbName string) ProfileRepository {
	return &couchProfileRepo{
		db:  client.DB(dbName),
		now: time.Now,
	}
}

func (r *couchProfileRepo) FetchCurrent(ctx context.Context) (*domain.CurrentProfile, error) {
	doc, err := r.latest(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.CurrentProfile{
		ProfileData: doc.ProfileData,
		Metadata:    doc.Metadata,
	}, nil
}

func (r *couchProfileRepo) FetchEditHistory(ctx context.Context, fileID string) (*domain.EditHistory, error) {
	var profile profileDoc
	if err := r.db.Get(ctx, profileDocID(fileID)).ScanDoc(&profile); err != nil {
		return nil, couchError("fetch edit history", err)
	}

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"type":    docTypeEdit,
			"file_id": fileID,
		},
	}

	rows := r.db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, couchError("fetch edit history", err)
	}
	defer rows.Close()

	var edits []editDoc
	for rows.Next() {
		var e editDoc
		if err := rows.ScanDoc(&e); err != nil {
			continue
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, couchError("fetch edit history", err)
	}

	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Seq > edits[j].Seq
	})

	records := make([]domain.EditRecord, len(edits))
	for i, e := range edits {
		records[i] = e.Record
	}

	return &domain.EditHistory{
		EditHistory: records,
		Metadata:    profile.Metadata,
	}, nil
}

func (r *couchProfileRepo) Submit(ctx context.Context, snapshot domain.ProfileSnapshot) (*domain.ProfileMetadata, error) {
	existing, err := r.latest(ctx)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return r.create(ctx, snapshot)
	case err != nil:
		return nil, err
	}

	return r.update(ctx, existing, snapshot)
}

func (r *couchProfileRepo) create(ctx context.Context, snapshot domain.ProfileSnapshot) (*domain.ProfileMetadata, error) {
	profileHash, err := hash.ProfileHash(snapshot)
	if err != nil {
		return nil, err
	}

	fileID := uuid.New().String()
	doc := &profileDoc{
		Type:        docTypeProfile,
		FileID:      fileID,
		ProfileData: snapshot,
		Metadata: domain.ProfileMetadata{
			FileID:      fileID,
			Version:     1,
			ProfileHash: profileHash,
			Timestamp:   r.now().UTC(),
		},
	}

	if _, err := r.db.Put(ctx, profileDocID(fileID), doc); err != nil {
		return nil, couchError("create profile", err)
	}

	return &doc.Metadata, nil
}

func (r *couchProfileRepo) update(ctx context.Context, existing *profileDoc, snapshot domain.ProfileSnapshot) (*domain.ProfileMetadata, error) {
	change := history.Diff(existing.ProfileData, snapshot)
	if len(change.ChangedFields) == 0 {
		return &existing.Metadata, nil
	}

	merged := existing.ProfileData.Merge(snapshot)
	profileHash, err := hash.ProfileHash(merged)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()

	// The edit goes in first so a committed profile never lacks its record. A
	// failed profile write removes the edit again.
	edit := &editDoc{
		Type:   docTypeEdit,
		FileID: existing.FileID,
		Seq:    now.UnixNano(),
		Record: domain.EditRecord{
			ChangedFields: change.ChangedFields,
			OldValues:     change.OldValues,
			NewValues:     change.NewValues,
			ChangedAt:     now,
		},
	}
	editID := fmt.Sprintf("edit:%s:%d", existing.FileID, edit.Seq)
	editRev, err := r.db.Put(ctx, editID, edit)
	if err != nil {
		return nil, couchError("append edit", err)
	}

	updated := *existing
	updated.ProfileData = merged
	updated.Metadata.Version++
	updated.Metadata.ProfileHash = profileHash
	updated.Metadata.Timestamp = now

	if _, err := r.db.Put(ctx, profileDocID(existing.FileID), &updated); err != nil {
		if _, derr := r.db.Delete(context.WithoutCancel(ctx), editID, editRev); derr != nil {
			return nil, fmt.Errorf("failed to roll back edit %s: %w", editID, errors.Join(err, derr))
		}
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return nil, ErrProfileConflict
		}
		return nil, couchError("update profile", err)
	}

	return &updated.Metadata, nil
}

// latest returns the most recently written profile document.
func (r *couchProfileRepo) latest(ctx context.Context) (*profileDoc, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"type": docTypeProfile,
		},
	}

	rows := r.db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, couchError("fetch current profile", err)
	}
	defer rows.Close()

	var newest *profileDoc
	for rows.Next() {
		var doc profileDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		if newest == nil || doc.Metadata.Timestamp.After(newest.Metadata.Timestamp) {
			d := doc
			newest = &d
		}
	}
	if err := rows.Err(); err != nil {
		return nil, couchError("fetch current profile", err)
	}

	if newest == nil {
		return nil, ErrProfileNotFound
	}
	return newest, nil
}

func profileDocID(fileID string) string {
	return fmt.Sprintf("profile:%s", fileID)
}

func couchError(op string, err error) error {
	status := kivik.HTTPStatus(err)
	if status == http.StatusNotFound {
		return ErrProfileNotFound
	}
	return &TransportError{Op: op, StatusCode: status, Err: err}
}
