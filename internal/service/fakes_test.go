package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog-review/internal/domain"
	"github.com/utafrali/catalog-review/internal/repository"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

var discardLogger = slog.New(slog.DiscardHandler)

// memDB is an in-memory stand-in for the product, rating and review tables.
// Run snapshots the tables and restores them when fn fails.
type memDB struct {
	mu       sync.Mutex
	products map[string]domain.Product
	ratings  map[string]domain.Rating
	reviews  map[string]domain.Review
	order    []string

	failReviewCreate error
	failUpdateRating error
}

func newMemDB() *memDB {
	return &memDB{
		products: map[string]domain.Product{},
		ratings:  map[string]domain.Rating{},
		reviews:  map[string]domain.Review{},
	}
}

func (db *memDB) addProduct(p domain.Product) domain.Product {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsActive = true
	db.products[p.ID] = p
	return p
}

func (db *memDB) product(id string) domain.Product { return db.products[id] }

func (db *memDB) activeRatings(productID string) int {
	n := 0
	for _, r := range db.ratings {
		if r.ProductID == productID && r.IsActive {
			n++
		}
	}
	return n
}

func (db *memDB) Run(ctx context.Context, fn func(ctx context.Context, st repository.Stores) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	products := cloneMap(db.products)
	ratings := cloneMap(db.ratings)
	reviews := cloneMap(db.reviews)
	order := append([]string(nil), db.order...)

	st := repository.Stores{
		Products: memProducts{db},
		Ratings:  memRatings{db},
		Reviews:  memReviews{db},
	}
	err := fn(ctx, st)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		db.products, db.ratings, db.reviews, db.order = products, ratings, reviews, order
		return err
	}
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memProducts struct{ db *memDB }

func (m memProducts) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.db.products {
		if p.Slug == slug {
			p := p
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("product", slug)
}

func (m memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.db.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (m memProducts) ListAvailable(context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, p := range m.db.products {
		if p.Available() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memProducts) ListByCategories(_ context.Context, ids []string) ([]domain.Product, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []domain.Product{}
	for _, p := range m.db.products {
		if p.Available() && want[p.CategoryID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memProducts) Create(_ context.Context, p *domain.Product) error {
	for _, existing := range m.db.products {
		if existing.Slug == p.Slug {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
	}
	m.db.products[p.ID] = *p
	return nil
}

func (m memProducts) UpdateRating(_ context.Context, id string, rating decimal.Decimal) error {
	if m.db.failUpdateRating != nil {
		return m.db.failUpdateRating
	}
	p, ok := m.db.products[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}
	p.Rating = rating
	m.db.products[id] = p
	return nil
}

type memRatings struct{ db *memDB }

func (m memRatings) SubmitGrade(_ context.Context, userID, productID string, grade int) (string, error) {
	if err := domain.ValidateGrade(grade); err != nil {
		return "", apperrors.InvalidInput(err.Error())
	}
	id := uuid.NewString()
	m.db.ratings[id] = domain.Rating{ID: id, Grade: grade, UserID: userID, ProductID: productID, IsActive: true}
	return id, nil
}

func (m memRatings) AverageGrade(_ context.Context, productID string) (decimal.Decimal, bool, error) {
	sum, n := 0, 0
	for _, r := range m.db.ratings {
		if r.ProductID == productID && r.IsActive {
			sum += r.Grade
			n++
		}
	}
	if n == 0 {
		return decimal.Zero, false, nil
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))), true, nil
}

func (m memRatings) DeactivateByReview(_ context.Context, ratingID string) error {
	r, ok := m.db.ratings[ratingID]
	if !ok {
		return nil
	}
	r.IsActive = false
	m.db.ratings[ratingID] = r
	return nil
}

type memReviews struct{ db *memDB }

func (m memReviews) Create(_ context.Context, rv *domain.Review) error {
	if m.db.failReviewCreate != nil {
		return m.db.failReviewCreate
	}
	rv.IsActive = true
	m.db.reviews[rv.ID] = *rv
	m.db.order = append(m.db.order, rv.ID)
	return nil
}

func (m memReviews) ordered(keep func(domain.Review) bool) []domain.Review {
	out := []domain.Review{}
	for _, id := range m.db.order {
		if rv := m.db.reviews[id]; keep(rv) {
			out = append(out, rv)
		}
	}
	return out
}

func (m memReviews) ListActiveForProduct(_ context.Context, productID string) ([]domain.ReviewView, error) {
	views := []domain.ReviewView{}
	for _, rv := range m.ordered(func(rv domain.Review) bool { return rv.ProductID == productID && rv.IsActive }) {
		v := domain.ReviewView{Comment: rv.Comment}
		if rt, ok := m.db.ratings[rv.RatingID]; ok && rt.IsActive {
			g := rt.Grade
			v.Grade = &g
		}
		views = append(views, v)
	}
	return views, nil
}

func (m memReviews) ListActive(context.Context) ([]domain.Review, error) {
	return m.ordered(func(rv domain.Review) bool { return rv.IsActive }), nil
}

func (m memReviews) ListForProduct(_ context.Context, productID string) ([]domain.Review, error) {
	return m.ordered(func(rv domain.Review) bool { return rv.ProductID == productID }), nil
}

func (m memReviews) DeactivateAllForProduct(_ context.Context, productID string) (int, error) {
	n := 0
	for id, rv := range m.db.reviews {
		if rv.ProductID == productID && rv.IsActive {
			rv.IsActive = false
			m.db.reviews[id] = rv
			n++
		}
	}
	return n, nil
}
