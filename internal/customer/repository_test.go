package customer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/arsarazi/realty/internal/db"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}

func sample(name, phone string) *Customer {
	return &Customer{Name: name, Phone: phone, Email: "ali@example.com", Type: Buyer}
}

func ptr(f float64) *float64 { return &f }

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	in := sample("Ali Yilmaz", "05551112233")
	in.Interests = []string{"villa", "Bodrum"}
	in.BudgetMin = ptr(100000)
	in.BudgetMax = ptr(250000)

	saved, err := repo.Insert(ctx, in)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if saved.Status != Active {
		t.Errorf("status = %q, want %q", saved.Status, Active)
	}
	if saved.Source != DefaultSource {
		t.Errorf("source = %q, want %q", saved.Source, DefaultSource)
	}

	got, err := repo.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Interests) != 2 || got.Interests[1] != "Bodrum" {
		t.Errorf("interests = %v", got.Interests)
	}
	if got.BudgetMax == nil || *got.BudgetMax != 250000 {
		t.Errorf("budget_max = %v, want 250000", got.BudgetMax)
	}
}

func TestInsertWithoutBudget(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	saved, err := repo.Insert(ctx, sample("Ayse Demir", "05552223344"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.BudgetMin != nil || saved.BudgetMax != nil {
		t.Errorf("expected nil budgets, got %v %v", saved.BudgetMin, saved.BudgetMax)
	}
	if saved.Interests == nil {
		t.Error("expected empty interests, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Customer)
		field  string
	}{
		{"short name", func(c *Customer) { c.Name = "A" }, "name"},
		{"short phone", func(c *Customer) { c.Phone = "123" }, "phone"},
		{"bad email", func(c *Customer) { c.Email = "not-an-email" }, "email"},
		{"unknown type", func(c *Customer) { c.Type = "landlord" }, "type"},
		{"unknown status", func(c *Customer) { c.Status = "gone" }, "status"},
		{"negative budget", func(c *Customer) { c.BudgetMin = ptr(-1) }, "budget_min"},
		{"inverted budget", func(c *Customer) { c.BudgetMin = ptr(10); c.BudgetMax = ptr(5) }, "budget_max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sample("Valid Name", "05551112233")
			c.ApplyDefaults()
			tt.modify(c)

			err := c.Validate()
			var verr *property.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Fields[0].Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Fields[0].Field, tt.field)
			}
		})
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Insert(context.Background(), &Customer{Name: "X"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }

		c := sample(fmt.Sprintf("Customer %02d", i), fmt.Sprintf("0555000%04d", i))
		if i%5 == 0 {
			c.Type = Investor
		}
		if i == 7 {
			c.Name = "Zeynep Kaya"
			c.Email = "zeynep@example.com"
		}
		if _, err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	page, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 25 || len(page.Items) != DefaultPageSize || page.TotalPages != 2 {
		t.Errorf("total=%d items=%d pages=%d", page.Total, len(page.Items), page.TotalPages)
	}
	if page.Items[0].Name != "Customer 24" {
		t.Errorf("first = %q, want newest", page.Items[0].Name)
	}

	page, err = repo.List(ctx, ListOptions{Page: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page.Items) != 5 {
		t.Errorf("page 2 items = %d, want 5", len(page.Items))
	}

	page, err = repo.List(ctx, ListOptions{Type: Investor})
	if err != nil {
		t.Fatalf("list investors: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("investors = %d, want 5", page.Total)
	}

	page, err = repo.List(ctx, ListOptions{Search: "ZEYNEP"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 || page.Items[0].Name != "Zeynep Kaya" {
		t.Errorf("search result = %+v", page.Items)
	}

	page, err = repo.List(ctx, ListOptions{Search: "05550000012"})
	if err != nil {
		t.Fatalf("search phone: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("phone search = %d, want 1", page.Total)
	}
}

func TestFindByPhone(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	saved, err := repo.Insert(ctx, sample("Mehmet Oz", "05553334455"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.FindByPhone(ctx, " 05553334455 ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != saved.ID {
		t.Errorf("id = %d, want %d", got.ID, saved.ID)
	}

	_, err = repo.FindByPhone(ctx, "05550000000")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	saved, err := repo.Insert(ctx, sample("Before Update", "05554445566"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	change := *saved
	change.Name = "After Update"
	change.Status = Converted
	updated, err := repo.Update(ctx, saved.ID, &change)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "After Update" || updated.Status != Converted {
		t.Errorf("updated = %+v", updated)
	}

	if err := repo.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, saved.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.Update(ctx, saved.ID, &change); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}
