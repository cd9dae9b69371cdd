package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crafthub/internal/bus"
	"crafthub/internal/gateway"
	"crafthub/internal/session"
	"crafthub/internal/store"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	products string
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
		body, _ := io.ReadAll(r.Body)
		f.bodies = append(f.bodies, string(body))

		if r.Method == http.MethodGet {
			fmt.Fprint(w, f.products)
			return
		}
		fmt.Fprint(w, `{"id":1}`)
	})
}

func testClient(t *testing.T) (*Client, *fakeBackend) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	b := bus.New()
	sessions, err := session.New(db, b)
	if err != nil {
		t.Fatal(err)
	}
	if err := sessions.SetAuth(session.Identity{Email: "s@x", FullName: "S", Role: session.RoleSeller}, "tok"); err != nil {
		t.Fatal(err)
	}

	backend := &fakeBackend{products: `[]`}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	return New(gateway.New(srv.URL, sessions, zap.NewNop())), backend
}

func TestList(t *testing.T) {
	c, backend := testClient(t)
	backend.products = `[{"id":3,"name":"Clay mug","price":12.50,"stockQuantity":4,"categoryDisplayName":"Керамика","sellerName":"Anna"}]`

	products, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].Name != "Clay mug" {
		t.Fatalf("products = %+v", products)
	}
	if products[0].Price.String() != "12.5" {
		t.Errorf("price = %s", products[0].Price)
	}
}

func TestMine(t *testing.T) {
	c, backend := testClient(t)
	backend.products = `[{"id":7,"name":"Oak bowl","price":44.90,"stockQuantity":2,"categoryDisplayName":"Дерево"}]`

	products, err := c.Mine(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].ID != 7 {
		t.Fatalf("products = %+v", products)
	}
	if backend.requests[0] != "GET /products/my" {
		t.Errorf("request = %s", backend.requests[0])
	}
}

func TestCategories(t *testing.T) {
	c, backend := testClient(t)
	backend.products = `[{"id":2,"name":"ceramics","displayName":"Керамика"},{"id":5,"name":"wood","displayName":"Дерево"}]`

	cats, err := c.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[1].ID != 5 || cats[1].DisplayName != "Дерево" {
		t.Fatalf("categories = %+v", cats)
	}
	if backend.requests[0] != "GET /categories" {
		t.Errorf("request = %s", backend.requests[0])
	}
}

func TestCreateAndUpdate(t *testing.T) {
	c, backend := testClient(t)

	d := Draft{Name: "Vase", Price: decimal.NewFromInt(30), StockQuantity: 5, CategoryID: 2}
	if _, err := c.Create(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(context.Background(), 3, d); err != nil {
		t.Fatal(err)
	}

	if backend.requests[0] != "POST /products" || backend.requests[1] != "PUT /products/3" {
		t.Fatalf("requests = %v", backend.requests)
	}
}

func TestModeration(t *testing.T) {
	c, backend := testClient(t)

	if err := c.Approve(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if err := c.Reject(context.Background(), 8, "blurry photos"); err != nil {
		t.Fatal(err)
	}

	if backend.requests[0] != "POST /products/7/approve" {
		t.Errorf("approve request = %s", backend.requests[0])
	}
	if backend.requests[1] != "POST /products/8/reject" || backend.bodies[1] != "blurry photos" {
		t.Errorf("reject = %s body %q", backend.requests[1], backend.bodies[1])
	}
}
