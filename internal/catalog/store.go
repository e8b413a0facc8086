// Package catalog holds the in-memory view of branches, products and
// per-branch stock. Branches and stock are loaded once; products are
// loaded once and appended to when the backend confirms a creation.
package catalog

import (
	"strings"
	"sync"

	"ferre-pos/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	branches []domain.Branch
	products []domain.Product
	stock    []domain.StockRow
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetBranches(branches []domain.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches = branches
}

func (s *Store) Branches() []domain.Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Branch, len(s.branches))
	copy(out, s.branches)
	return out
}

// BranchByID returns the branch with the given id, if loaded.
func (s *Store) BranchByID(id int64) (domain.Branch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.branches {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Branch{}, false
}

func (s *Store) SetProducts(products []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// AppendProduct adds a product the backend just created. No dedup check
// happens here; the server is the sole enforcer of code uniqueness.
func (s *Store) AppendProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, p)
}

// ProductByID returns the product with the given id, if loaded.
func (s *Store) ProductByID(id int64) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) SetStock(rows []domain.StockRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock = rows
}

func (s *Store) Stock() []domain.StockRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StockRow, len(s.stock))
	copy(out, s.stock)
	return out
}

// FilteredProducts returns products whose name, code or brand contains
// the search term, case-insensitively. An empty term returns the full
// list.
func (s *Store) FilteredProducts(term string) []domain.Product {
	if strings.TrimSpace(term) == "" {
		return s.Products()
	}

	needle := strings.ToLower(term)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Code), needle) ||
			strings.Contains(strings.ToLower(p.Brand), needle) {
			out = append(out, p)
		}
	}
	return out
}

// StockFor returns the stock row for one product at one branch. The
// second return value distinguishes "no row" from a row with zero
// quantity; callers render "not available" for the former.
func (s *Store) StockFor(productID, branchID int64) (domain.StockRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.stock {
		if row.Product == productID && row.Branch == branchID {
			return row, true
		}
	}
	return domain.StockRow{}, false
}
