package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"echowipe/internal/domain"
)

// CreatedLayout es el formato con precisión de minutos usado en el archivo.
const CreatedLayout = "02-01-2006 15:04"

type fileUserRecord struct {
	First    string `json:"first"`
	Last     string `json:"last"`
	Password string `json:"password"`
	Created  string `json:"created"`
}

// FileUserRepository guarda todas las cuentas en un único archivo JSON.
// Cada mutación reescribe el archivo completo.
type FileUserRepository struct {
	mu   sync.Mutex
	path string
}

func NewFileUserRepository(path string) (*FileUserRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("user db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return &FileUserRepository{path: path}, nil
}

// Load lee el archivo completo. Si no existe devuelve un mapa vacío. Las
// claves se normalizan a minúsculas; un created ilegible queda en cero.
func (r *FileUserRepository) Load(_ context.Context) (map[string]domain.User, error) {
	raw, err := r.loadRecords()
	if err != nil {
		return nil, err
	}
	users := make(map[string]domain.User, len(raw))
	for email, rec := range raw {
		created, _ := time.ParseInLocation(CreatedLayout, rec.Created, time.Local)
		users[email] = domain.User{
			Email:        email,
			FirstName:    rec.First,
			LastName:     rec.Last,
			PasswordHash: rec.Password,
			CreatedAt:    created,
		}
	}
	return users, nil
}

// Save reescribe el archivo completo vía archivo temporal + rename.
func (r *FileUserRepository) Save(_ context.Context, users map[string]domain.User) error {
	raw := make(map[string]fileUserRecord, len(users))
	for email, u := range users {
		raw[normalizeEmail(email)] = recordFromUser(u)
	}
	return r.saveRecords(raw)
}

// Create trabaja sobre los registros tal como están en disco, así los
// campos que no se entienden se reescriben sin cambios.
func (r *FileUserRepository) Create(_ context.Context, user domain.User) error {
	email := normalizeEmail(user.Email)
	if email == "" {
		return fmt.Errorf("user email is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.loadRecords()
	if err != nil {
		return err
	}
	if _, ok := raw[email]; ok {
		return ErrUserExists
	}
	raw[email] = recordFromUser(user)
	return r.saveRecords(raw)
}

func (r *FileUserRepository) loadRecords() (map[string]fileUserRecord, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]fileUserRecord), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user db: %w", err)
	}

	stored := make(map[string]fileUserRecord)
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("decode user db: %w", err)
		}
	}

	// Archivos antiguos pueden tener claves con mayúsculas. Si dos claves
	// colisionan gana la que ya estaba en minúsculas.
	raw := make(map[string]fileUserRecord, len(stored))
	for key, rec := range stored {
		email := normalizeEmail(key)
		if _, taken := raw[email]; taken && key != email {
			continue
		}
		raw[email] = rec
	}
	return raw, nil
}

func (r *FileUserRepository) saveRecords(raw map[string]fileUserRecord) error {
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encode user db: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".users-*.json")
	if err != nil {
		return fmt.Errorf("create temp user db: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp user db: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp user db: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace user db: %w", err)
	}
	return nil
}

func recordFromUser(u domain.User) fileUserRecord {
	return fileUserRecord{
		First:    u.FirstName,
		Last:     u.LastName,
		Password: u.PasswordHash,
		Created:  u.CreatedAt.Format(CreatedLayout),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *FileUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.Load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	u, ok := users[normalizeEmail(email)]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return u, nil
}
