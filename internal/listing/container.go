// Package listing keeps the in-memory grocery list in step with the remote
// store. Every mutation is sent to the store first; local state changes only
// after the store confirms it.
package listing

import (
	"context"
	"errors"
	"sync"

	"grocery_sheets/internal/notifications"
	"grocery_sheets/internal/products"
	"grocery_sheets/internal/session"
	"grocery_sheets/internal/sheets"

	"github.com/rs/zerolog/log"
)

// Store is the remote side of the list.
type Store interface {
	FetchAll(ctx context.Context) ([]products.Product, error)
	Append(ctx context.Context, draft products.Draft) (products.Product, error)
	UpdateByID(ctx context.Context, product products.Product) error
	DeleteByID(ctx context.Context, id string) error
}

// Authenticator reports whether remote calls can be made.
type Authenticator interface {
	Authenticated() bool
}

type Container struct {
	store    Store
	auth     Authenticator
	notifier notifications.Notifier

	mu    sync.RWMutex
	items []products.Product

	// generation advances on every Reset. A remote call that started in an
	// earlier generation must not touch the list when it returns.
	generation uint64
	loads      int
}

func New(store Store, auth Authenticator, notifier notifications.Notifier) *Container {
	if notifier == nil {
		notifier = notifications.LogNotifier{}
	}
	return &Container{
		store:    store,
		auth:     auth,
		notifier: notifier,
		items:    []products.Product{},
	}
}

// Attach reloads the list whenever s starts a session and empties it when
// the session ends.
func (c *Container) Attach(s *session.Session) {
	s.Subscribe(func(ctx context.Context, ev session.Event) {
		switch ev {
		case session.Established:
			c.notifier.Notify(ctx, notifications.Success("Signed in successfully"))
			_ = c.Load(ctx)
		case session.Cleared:
			c.Reset()
			c.notifier.Notify(ctx, notifications.Success("Signed out"))
		}
	})
}

// Products returns a copy of the current list.
func (c *Container) Products() []products.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]products.Product, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Container) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads > 0
}

// View is the list as shown to the user: the products matching a search
// term and their totals.
type View struct {
	Items   []products.Product `json:"items"`
	Summary products.Summary   `json:"summary"`
	Loading bool               `json:"loading"`
}

func (c *Container) View(term string) View {
	c.mu.RLock()
	items := products.Filter(c.items, term)
	loading := c.loads > 0
	c.mu.RUnlock()

	return View{
		Items:   items,
		Summary: products.Summarize(items),
		Loading: loading,
	}
}

// Reset empties the list and clears the loading flag. Remote calls still in
// flight are discarded when they return.
func (c *Container) Reset() {
	c.mu.Lock()
	c.items = []products.Product{}
	c.generation++
	c.loads = 0
	c.mu.Unlock()
	log.Debug().Msg("Cleared product list")
}

// Load replaces the whole list with the remote contents. On failure the
// previous list stays visible. Without a session the list is reset.
func (c *Container) Load(ctx context.Context) error {
	if !c.authenticated() {
		c.Reset()
		return nil
	}

	gen := c.startLoad()
	defer c.finishLoad(gen)

	items, err := c.store.FetchAll(ctx)
	if err != nil {
		c.fail(ctx, err, "Could not load products. Please try again.")
		return err
	}

	if !c.reconcile(gen, func() { c.items = items }) {
		log.Debug().Msg("Discarded product list loaded before the list was reset")
		return nil
	}

	log.Debug().Int("products", len(items)).Msg("Loaded product list")
	return nil
}

// Add stores draft remotely and appends the result to the local list.
func (c *Container) Add(ctx context.Context, draft products.Draft) (products.Product, error) {
	if !c.authenticated() {
		return products.Product{}, session.ErrNotAuthenticated
	}

	gen := c.currentGeneration()
	product, err := c.store.Append(ctx, draft)
	if err != nil {
		c.fail(ctx, err, "Could not add product. Please try again.")
		return products.Product{}, err
	}

	c.reconcile(gen, func() { c.items = append(c.items, product) })

	c.notifier.Notify(ctx, notifications.Success("Product added"))
	return product, nil
}

// Update overwrites product remotely and then replaces the local entry with
// the same id.
func (c *Container) Update(ctx context.Context, product products.Product) error {
	if !c.authenticated() {
		return session.ErrNotAuthenticated
	}

	gen := c.currentGeneration()
	if err := c.store.UpdateByID(ctx, product); err != nil {
		c.fail(ctx, err, "Could not update product. Please try again.")
		return err
	}

	c.reconcile(gen, func() {
		for i := range c.items {
			if c.items[i].ID == product.ID {
				c.items[i] = product
			}
		}
	})

	c.notifier.Notify(ctx, notifications.Success("Product updated"))
	return nil
}

// Remove deletes id remotely and then drops it from the local list.
func (c *Container) Remove(ctx context.Context, id string) error {
	if !c.authenticated() {
		return session.ErrNotAuthenticated
	}

	gen := c.currentGeneration()
	if err := c.store.DeleteByID(ctx, id); err != nil {
		c.fail(ctx, err, "Could not remove product. Please try again.")
		return err
	}

	c.reconcile(gen, func() {
		kept := c.items[:0:0]
		for _, p := range c.items {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		c.items = kept
	})

	c.notifier.Notify(ctx, notifications.Success("Product removed"))
	return nil
}

// Find returns the local product with id.
func (c *Container) Find(id string) (products.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.items {
		if p.ID == id {
			return p, true
		}
	}
	return products.Product{}, false
}

// SetPurchased ticks or unticks a product on the list.
func (c *Container) SetPurchased(ctx context.Context, id string, purchased bool) (products.Product, error) {
	product, ok := c.Find(id)
	if !ok {
		return products.Product{}, sheets.ErrNotFound
	}
	product.Purchased = purchased
	if err := c.Update(ctx, product); err != nil {
		return products.Product{}, err
	}
	return product, nil
}

func (c *Container) authenticated() bool {
	return c.auth == nil || c.auth.Authenticated()
}

func (c *Container) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// reconcile applies fn to the list unless a Reset happened since gen.
func (c *Container) reconcile(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	fn()
	return true
}

func (c *Container) startLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	return c.generation
}

// finishLoad ends a load started in gen. Reset already dropped the loads of
// earlier generations.
func (c *Container) finishLoad(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen && c.loads > 0 {
		c.loads--
	}
}

func (c *Container) fail(ctx context.Context, err error, message string) {
	log.Error().Err(err).Msg(message)

	switch {
	case errors.Is(err, sheets.ErrDuplicateID):
		message = "A product with the same id already exists. Please try again."
	case errors.Is(err, sheets.ErrNotFound):
		message = "The product no longer exists in the spreadsheet. Reload the list."
	case errors.Is(err, sheets.ErrRangeFull):
		message = "The spreadsheet list is full."
	}
	c.notifier.Notify(ctx, notifications.Failure("%s", message))
}
