package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"profile-registry/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

var ErrRegulatorNotFound = errors.New("regulator not found")

type RegulatorRepository interface {
	Create(regulator *domain.Regulator) error
	FindByEmail(email string) (*domain.Regulator, error)
	FindByID(id string) (*domain.Regulator, error)
	EmailExists(email string) (bool, error)
}

type regulatorRepository struct {
	client *kivik.Client
	dbName string
}

func NewRegulatorRepository(client *kivik.Client, dbName string) RegulatorRepository {
	return &regulatorRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *regulatorRepository) Create(regulator *domain.Regulator) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("regulator:%s", regulator.ID)
	doc := struct {
		Type string `json:"type"`
		*domain.Regulator
	}{Type: "regulator", Regulator: regulator}

	if _, err := db.Put(context.Background(), docID, doc); err != nil {
		return fmt.Errorf("failed to create regulator: %w", err)
	}

	return nil
}

func (r *regulatorRepository) FindByEmail(email string) (*domain.Regulator, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"type":  "regulator",
			"email": strings.ToLower(email),
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query regulator by email: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrRegulatorNotFound
	}

	var regulator domain.Regulator
	if err := rows.ScanDoc(&regulator); err != nil {
		return nil, fmt.Errorf("failed to scan regulator: %w", err)
	}

	return &regulator, nil
}

func (r *regulatorRepository) FindByID(id string) (*domain.Regulator, error) {
	db := r.client.DB(r.dbName)

	var regulator domain.Regulator
	if err := db.Get(context.Background(), fmt.Sprintf("regulator:%s", id)).ScanDoc(&regulator); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrRegulatorNotFound
		}
		return nil, fmt.Errorf("failed to find regulator by ID: %w", err)
	}

	return &regulator, nil
}

func (r *regulatorRepository) EmailExists(email string) (bool, error) {
	_, err := r.FindByEmail(email)
	if errors.Is(err, ErrRegulatorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type memoryRegulatorRepository struct {
	mu         sync.RWMutex
	regulators map[string]*domain.Regulator
}

// NewInMemoryRegulatorRepository is used when no CouchDB is configured.
func NewInMemoryRegulatorRepository() RegulatorRepository {
	return &memoryRegulatorRepository{
		regulators: make(map[string]*domain.Regulator),
	}
}

func (m *memoryRegulatorRepository) Create(regulator *domain.Regulator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *regulator
	cp.Email = strings.ToLower(cp.Email)
	m.regulators[cp.ID] = &cp
	return nil
}

func (m *memoryRegulatorRepository) FindByEmail(email string) (*domain.Regulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, reg := range m.regulators {
		if reg.Email == email {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, ErrRegulatorNotFound
}

func (m *memoryRegulatorRepository) FindByID(id string) (*domain.Regulator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.regulators[id]
	if !ok {
		return nil, ErrRegulatorNotFound
	}
	cp := *reg
	return &cp, nil
}

func (m *memoryRegulatorRepository) EmailExists(email string) (bool, error) {
	_, err := m.FindByEmail(email)
	if errors.Is(err, ErrRegulatorNotFound) {
		return false, nil
	}
	return err == nil, err
}
