package auction

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// memProductRepo stores copies of products and enforces the version check
// the way the gorm repository does.
type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]auction.Product
	bids     []*auction.Bid

	// beforeBid runs once, right before the next PlaceBid write
	beforeBid func()
	// forceConflicts makes the next n writes fail with a version conflict
	forceConflicts int
	bidWrites      int
	// failUpdates makes Update of these listings fail every time
	failUpdates map[uuid.UUID]error
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]auction.Product)}
}

func clone(p auction.Product) *auction.Product {
	c := p
	c.ImageKeys = append([]string{}, p.ImageKeys...)
	c.ClearDomainEvents()
	c.RestoreVersion(p.Version)
	return &c
}

func (r *memProductRepo) put(p *auction.Product) {
	p.RestoreVersion(p.Version)
	v := *clone(*p)
	r.products[p.ID] = v
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*auction.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return clone(p), nil
}

func (r *memProductRepo) FindAll(_ context.Context, filter auction.ProductFilter) ([]*auction.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*auction.Product
	for _, p := range r.products {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.SellerID != nil && p.SellerID != *filter.SellerID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Keyword)) {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	total := int64(len(out))
	start := min(filter.Offset(), len(out))
	end := min(start+filter.Limit(), len(out))
	return out[start:end], total, nil
}

func (r *memProductRepo) Create(_ context.Context, p *auction.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(p)
	return nil
}

func (r *memProductRepo) checkVersion(p *auction.Product) error {
	if r.forceConflicts > 0 {
		r.forceConflicts--
		return shared.ErrConcurrencyConflict
	}
	stored, ok := r.products[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != p.StoredVersion() {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *memProductRepo) Update(_ context.Context, p *auction.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failUpdates[p.ID]; err != nil {
		return err
	}
	if err := r.checkVersion(p); err != nil {
		return err
	}
	r.put(p)
	return nil
}

func (r *memProductRepo) PlaceBid(_ context.Context, p *auction.Product, bid *auction.Bid) error {
	if hook := r.beforeBid; hook != nil {
		r.beforeBid = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bidWrites++
	if err := r.checkVersion(p); err != nil {
		return err
	}
	r.put(p)
	r.bids = append(r.bids, bid)
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memProductRepo) FindEndedActive(_ context.Context, now time.Time, after *auction.SweepCursor, limit int) ([]*auction.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*auction.Product
	for _, p := range r.products {
		if p.Status != auction.ProductStatusActive || p.EndsAt.After(now) {
			continue
		}
		if after != nil && sweepBefore(p.EndsAt, p.ID, after.EndsAt, after.ID) <= 0 {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return sweepBefore(out[i].EndsAt, out[i].ID, out[j].EndsAt, out[j].ID) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sweepBefore orders by (ends_at, id) the way the SQL query does
func sweepBefore(aEnds time.Time, aID uuid.UUID, bEnds time.Time, bID uuid.UUID) int {
	if c := aEnds.Compare(bEnds); c != 0 {
		return c
	}
	return bytes.Compare(aID[:], bID[:])
}

func (r *memProductRepo) CountByStatus(_ context.Context) (map[auction.ProductStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[auction.ProductStatus]int64)
	for _, p := range r.products {
		out[p.Status]++
	}
	return out, nil
}

// memBidRepo reads the ledger kept by memProductRepo
type memBidRepo struct {
	products *memProductRepo
}

func (r *memBidRepo) page(bids []*auction.Bid, filter auction.BidFilter) []*auction.Bid {
	sort.Slice(bids, func(i, j int) bool { return bids[i].PlacedAt.After(bids[j].PlacedAt) })
	start := min(filter.Offset(), len(bids))
	end := min(start+filter.Limit(), len(bids))
	return bids[start:end]
}

func (r *memBidRepo) FindByProduct(_ context.Context, productID uuid.UUID, filter auction.BidFilter) ([]*auction.Bid, int64, error) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	var out []*auction.Bid
	for _, b := range r.products.bids {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return r.page(out, filter), int64(len(out)), nil
}

func (r *memBidRepo) FindByBidder(_ context.Context, bidderID uuid.UUID, filter auction.BidFilter) ([]*auction.Bid, int64, error) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	var out []*auction.Bid
	for _, b := range r.products.bids {
		if b.BidderID == bidderID {
			out = append(out, b)
		}
	}
	return r.page(out, filter), int64(len(out)), nil
}

func (r *memBidRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	var n int64
	for _, b := range r.products.bids {
		if !b.PlacedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// memUserRepo is a read-only user lookup
type memUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func (r *memUserRepo) Create(context.Context, *identity.User, identity.Profile) error { return nil }
func (r *memUserRepo) Update(context.Context, *identity.User) error                   { return nil }

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memUserRepo) FindByEmail(context.Context, string) (*identity.User, error) {
	return nil, shared.ErrNotFound
}

func (r *memUserRepo) FindByUsername(context.Context, string) (*identity.User, error) {
	return nil, shared.ErrNotFound
}

func (r *memUserRepo) FindAll(context.Context, identity.UserFilter) ([]*identity.User, int64, error) {
	return nil, 0, nil
}

func (r *memUserRepo) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }
func (r *memUserRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }

func (r *memUserRepo) CountByRole(context.Context) (map[identity.Role]int64, error) {
	return nil, nil
}

// fakeStorage remembers which keys were "uploaded"
type fakeStorage struct {
	uploaded map[string]bool
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: make(map[string]bool)}
}

func (s *fakeStorage) GenerateUploadURL(_ context.Context, key, _ string) (string, time.Time, error) {
	return "https://objects.test/" + key + "?sig=put", time.Now().Add(15 * time.Minute), nil
}

func (s *fakeStorage) GenerateViewURL(_ context.Context, key string) (string, time.Time, error) {
	return "https://objects.test/" + key + "?sig=get", time.Now().Add(time.Hour), nil
}

func (s *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	return s.uploaded[key], nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.uploaded, key)
	return nil
}

type countingRecorder struct {
	rejected []string
	retried  int
}

func (r *countingRecorder) BidRejected(code string) { r.rejected = append(r.rejected, code) }
func (r *countingRecorder) BidRetried()             { r.retried++ }

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}
