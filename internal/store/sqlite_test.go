package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/store"
	"github.com/nhle/order-tracker/tests/testutil"
)

func testOrder(id, orderID, seller, status string, sourceDate time.Time) model.Order {
	return model.Order{
		ID:            id,
		SourceType:    model.SourceTypeIMAP,
		SourceID:      "src-1",
		OrderID:       orderID,
		SellerName:    seller,
		Status:        status,
		SourceSubject: "Your order " + orderID,
		SourceDate:    sourceDate,
		SyncedAt:      time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertOrdersRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	delivery := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	withDelivery := testOrder("m1", "171-2938475-1028374", "Amazon.in", model.StatusShipped,
		time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))
	withDelivery.DeliveryDate = &delivery

	noDelivery := testOrder("m2", "MYN12345678", "Myntra", model.StatusConfirmed,
		time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC))

	if err := s.UpsertOrders(ctx, []model.Order{withDelivery, noDelivery}); err != nil {
		t.Fatalf("UpsertOrders() error = %v", err)
	}

	got, err := s.GetOrderByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetOrderByID(m1) error = %v", err)
	}
	if got.OrderID != "171-2938475-1028374" {
		t.Errorf("OrderID = %q, want %q", got.OrderID, "171-2938475-1028374")
	}
	if got.SellerName != "Amazon.in" {
		t.Errorf("SellerName = %q, want %q", got.SellerName, "Amazon.in")
	}
	if got.Status != model.StatusShipped {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusShipped)
	}
	if got.SourceType != model.SourceTypeIMAP {
		t.Errorf("SourceType = %q, want %q", got.SourceType, model.SourceTypeIMAP)
	}
	if got.DeliveryDate == nil || !got.DeliveryDate.Equal(delivery) {
		t.Errorf("DeliveryDate = %v, want %v", got.DeliveryDate, delivery)
	}

	got, err = s.GetOrderByID(ctx, "m2")
	if err != nil {
		t.Fatalf("GetOrderByID(m2) error = %v", err)
	}
	if got.DeliveryDate != nil {
		t.Errorf("DeliveryDate = %v, want nil", got.DeliveryDate)
	}
}

func TestUpsertOrdersReplacesExisting(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := testOrder("m1", "87654321", "Flipkart", model.StatusConfirmed,
		time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))
	if err := s.UpsertOrders(ctx, []model.Order{first}); err != nil {
		t.Fatalf("UpsertOrders() error = %v", err)
	}

	updated := first
	updated.Status = model.StatusShipped
	if err := s.UpsertOrders(ctx, []model.Order{updated}); err != nil {
		t.Fatalf("UpsertOrders() second write error = %v", err)
	}

	count, err := s.CountOrders(ctx, store.OrderFilter{})
	if err != nil {
		t.Fatalf("CountOrders() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountOrders() = %d, want 1 after re-sync of same message", count)
	}

	got, err := s.GetOrderByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetOrderByID(m1) error = %v", err)
	}
	if got.Status != model.StatusShipped {
		t.Errorf("Status = %q, want replaced value %q", got.Status, model.StatusShipped)
	}
}

func seedOrders(t *testing.T, s *store.SQLiteStore) {
	t.Helper()

	amazon := testOrder("m1", "171-2938475-1028374", "Amazon.in", model.StatusShipped,
		time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))
	myntra := testOrder("m2", "MYN12345678", "Myntra", model.StatusConfirmed,
		time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC))
	myntra.SourceID = "src-2"
	myntra.SourceType = model.SourceTypeGmail
	generic := testOrder("m3", "INV-20394", "Shop", model.StatusDelivered,
		time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC))

	if err := s.UpsertOrders(context.Background(), []model.Order{amazon, myntra, generic}); err != nil {
		t.Fatalf("seeding orders: %v", err)
	}
}

func TestGetOrdersFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	seedOrders(t, s)

	status := model.StatusConfirmed
	got, err := s.GetOrders(ctx, store.OrderFilter{Status: &status})
	if err != nil {
		t.Fatalf("GetOrders(status) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "m2" {
		t.Errorf("GetOrders(status=Confirmed) = %v, want [m2]", orderIDs(got))
	}

	seller := "Amazon.in"
	got, err = s.GetOrders(ctx, store.OrderFilter{Seller: &seller})
	if err != nil {
		t.Fatalf("GetOrders(seller) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Errorf("GetOrders(seller=Amazon.in) = %v, want [m1]", orderIDs(got))
	}

	sourceType := string(model.SourceTypeGmail)
	got, err = s.GetOrders(ctx, store.OrderFilter{SourceType: &sourceType})
	if err != nil {
		t.Fatalf("GetOrders(sourceType) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "m2" {
		t.Errorf("GetOrders(sourceType=gmail) = %v, want [m2]", orderIDs(got))
	}

	query := "INV-"
	got, err = s.GetOrders(ctx, store.OrderFilter{Query: &query})
	if err != nil {
		t.Fatalf("GetOrders(query) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "m3" {
		t.Errorf("GetOrders(query=INV-) = %v, want [m3]", orderIDs(got))
	}
}

func TestGetOrdersSortAndPagination(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	seedOrders(t, s)

	got, err := s.GetOrders(ctx, store.OrderFilter{SortBy: "source_date", SortDesc: true})
	if err != nil {
		t.Fatalf("GetOrders(sort desc) error = %v", err)
	}
	if len(got) != 3 || got[0].ID != "m3" || got[2].ID != "m1" {
		t.Errorf("GetOrders(source_date desc) = %v, want [m3 m2 m1]", orderIDs(got))
	}

	got, err = s.GetOrders(ctx, store.OrderFilter{
		SortBy: "source_date", SortDesc: true, Limit: 1, Offset: 1,
	})
	if err != nil {
		t.Fatalf("GetOrders(paginated) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "m2" {
		t.Errorf("GetOrders(limit 1 offset 1) = %v, want [m2]", orderIDs(got))
	}
}

func TestCountOrdersIgnoresPagination(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	seedOrders(t, s)

	count, err := s.CountOrders(ctx, store.OrderFilter{Limit: 1})
	if err != nil {
		t.Fatalf("CountOrders() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountOrders() = %d, want 3", count)
	}

	status := model.StatusShipped
	count, err = s.CountOrders(ctx, store.OrderFilter{Status: &status})
	if err != nil {
		t.Fatalf("CountOrders(status) error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountOrders(status=Shipped) = %d, want 1", count)
	}
}

func TestDeleteOrdersBySource(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	seedOrders(t, s)

	if err := s.DeleteOrdersBySource(ctx, "src-1"); err != nil {
		t.Fatalf("DeleteOrdersBySource() error = %v", err)
	}

	got, err := s.GetOrders(ctx, store.OrderFilter{})
	if err != nil {
		t.Fatalf("GetOrders() error = %v", err)
	}
	if len(got) != 1 || got[0].SourceID != "src-2" {
		t.Errorf("remaining orders = %v, want only src-2 entries", orderIDs(got))
	}
}

func TestGetOrderByIDMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	if _, err := s.GetOrderByID(context.Background(), "absent"); err == nil {
		t.Error("GetOrderByID(absent) error = nil, want not-found error")
	}
}

func TestSourceRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	src := model.SourceConfig{
		ID:      "imap-1",
		Type:    string(model.SourceTypeIMAP),
		Name:    "Personal mail",
		Enabled: true,
		Config: map[string]string{
			model.ConfigKeyIMAPHost: "imap.example.test",
			model.ConfigKeyIMAPPort: "993",
			model.ConfigKeyUsername: "buyer@example.test",
		},
	}
	if err := s.UpsertSource(ctx, src); err != nil {
		t.Fatalf("UpsertSource() error = %v", err)
	}

	sources, err := s.GetSources(ctx)
	if err != nil {
		t.Fatalf("GetSources() error = %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("GetSources() returned %d sources, want 1", len(sources))
	}

	got := sources[0]
	if got.ID != "imap-1" {
		t.Errorf("source ID = %q, want %q", got.ID, "imap-1")
	}
	if !got.Enabled {
		t.Error("source Enabled = false, want true")
	}
	if got.ConfigValue(model.ConfigKeyIMAPHost) != "imap.example.test" {
		t.Errorf("imap_host = %q, want %q",
			got.ConfigValue(model.ConfigKeyIMAPHost), "imap.example.test")
	}

	if err := s.DeleteSource(ctx, "imap-1"); err != nil {
		t.Fatalf("DeleteSource() error = %v", err)
	}
	sources, err = s.GetSources(ctx)
	if err != nil {
		t.Fatalf("GetSources() after delete error = %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("GetSources() after delete returned %d sources, want 0", len(sources))
	}
}

func orderIDs(orders []model.Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}
