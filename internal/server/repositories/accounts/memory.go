package accounts

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/dmpavlov/userkeeper/internal/common"
	"github.com/dmpavlov/userkeeper/internal/server/models"
)

// MemoryRepository is the reference in-memory store. All methods are safe
// for concurrent use; accounts are copied on the way in and out so callers
// never alias internal state.
type MemoryRepository struct {
	mu          sync.RWMutex
	accounts    map[string]*models.Account // by id
	emails      map[string]string          // canonical email -> id
	order       []string                   // ids in insertion order
	nextPhoneID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*models.Account),
		emails:   make(map[string]string),
	}
}

func (r *MemoryRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical := strings.ToLower(account.Email)
	if ownerID, ok := r.emails[canonical]; ok && ownerID != account.ID {
		return nil, common.ErrDuplicateEmail
	}

	stored, exists := r.accounts[account.ID]
	if exists {
		// the email may have changed; drop the old index entry
		delete(r.emails, strings.ToLower(stored.Email))
	} else {
		r.order = append(r.order, account.ID)
	}

	clone := cloneAccount(account)
	for i := range clone.Phones {
		r.nextPhoneID++
		clone.Phones[i].ID = r.nextPhoneID
	}

	r.accounts[account.ID] = clone
	r.emails[canonical] = account.ID

	return cloneAccount(clone), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneAccount(account), nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneAccount(r.accounts[id]), nil
}

func (r *MemoryRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return common.ErrNotFound
	}

	delete(r.accounts, id)
	delete(r.emails, strings.ToLower(account.Email))
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

func (r *MemoryRepository) FindPage(ctx context.Context, page, size int) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// page*size past MaxInt would wrap negative and corrupt the slice bounds
	if page < 0 || size <= 0 || page > math.MaxInt/size {
		return []*models.Account{}, nil
	}

	start := page * size
	if start >= len(r.order) {
		return []*models.Account{}, nil
	}
	end := start + size
	if end > len(r.order) {
		end = len(r.order)
	}

	result := make([]*models.Account, 0, end-start)
	for _, id := range r.order[start:end] {
		result = append(result, cloneAccount(r.accounts[id]))
	}
	return result, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.accounts)), nil
}

func cloneAccount(a *models.Account) *models.Account {
	clone := *a
	clone.Phones = make([]models.Phone, len(a.Phones))
	copy(clone.Phones, a.Phones)
	return &clone
}
