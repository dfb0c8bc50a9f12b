// Package router maps storefront paths to views.
package router

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type View string

const (
	ViewHome     View = "home"
	ViewProduct  View = "product"
	ViewCart     View = "cart"
	ViewCheckout View = "checkout"
	ViewAdmin    View = "admin"
)

type Route struct {
	View   View              `json:"view"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
}

var routes = newRouteTable()

func newRouteTable() *chi.Mux {
	mux := chi.NewRouter()
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, pattern := range []string{"/", "/product/{id}", "/cart", "/checkout", "/admin"} {
		mux.Get(pattern, noop)
	}
	return mux
}

var patternViews = map[string]View{
	"/":             ViewHome,
	"/product/{id}": ViewProduct,
	"/cart":         ViewCart,
	"/checkout":     ViewCheckout,
	"/admin":        ViewAdmin,
}

func normalize(path string) string {
	path = strings.TrimPrefix(path, "#")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Resolve maps path to a Route. Hash prefixes and query strings are
// ignored; anything outside the known vocabulary resolves to home.
func Resolve(path string) Route {
	path = normalize(path)

	rctx := chi.NewRouteContext()
	if !routes.Match(rctx, http.MethodGet, path) {
		return Route{View: ViewHome, Path: "/"}
	}

	view, ok := patternViews[rctx.RoutePattern()]
	if !ok {
		return Route{View: ViewHome, Path: "/"}
	}

	route := Route{View: view, Path: path}
	if view == ViewProduct {
		id := rctx.URLParam("id")
		if id == "" {
			return Route{View: ViewHome, Path: "/"}
		}
		route.Params = map[string]string{"id": id}
	}
	return route
}

// ProductView looks up the product for a product route. ok is false for
// any other route and for an id that is not in the catalog, which the
// caller renders as "not found".
func ProductView(ctx context.Context, route Route, products repository.ProductRepository) (product *models.Product, ok bool) {
	if route.View != ViewProduct {
		return nil, false
	}
	p, err := products.GetByID(ctx, route.Params["id"])
	if err != nil {
		return nil, false
	}
	return p, true
}

// Dispatcher tracks the current route and tells listeners when it
// changes.
type Dispatcher struct {
	mu        sync.Mutex
	current   Route
	listeners []func(Route)
}

func NewDispatcher(initial string) *Dispatcher {
	return &Dispatcher{current: Resolve(initial)}
}

func (d *Dispatcher) Current() Route {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Dispatcher) OnChange(fn func(Route)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Navigate resolves path, makes it current and runs the listeners before
// returning.
func (d *Dispatcher) Navigate(path string) Route {
	route := Resolve(path)

	d.mu.Lock()
	d.current = route
	listeners := append([]func(Route){}, d.listeners...)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(route)
	}
	return route
}

// Listen navigates to every path received on paths until the channel is
// closed or ctx is done.
func (d *Dispatcher) Listen(ctx context.Context, paths <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-paths:
			if !ok {
				return nil
			}
			d.Navigate(path)
		}
	}
}
