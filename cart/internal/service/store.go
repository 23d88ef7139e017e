package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/cart/pkg/response"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/metrics"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/internal/storage"
	productRes "github.com/Alturino/sneakerzone/product/pkg/response"
)

var errInvalidLine = errors.New("invalid cart line")

type (
	Handler           func(cart response.Cart)
	SubscriptionToken uint64
)

type subscriber struct {
	token   SubscriptionToken
	handler Handler
}

// CartStore is the pending purchase of one session. Mutations are serialised and every mutation
// is persisted under storage.KeyCart before subscribers are notified with the new snapshot.
//
// Handlers run on the mutating goroutine and must not mutate the same store.
type CartStore struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	store       storage.Store
	metrics     *metrics.Metrics
	lines       []response.CartLine
	subscribers []subscriber
	nextToken   SubscriptionToken
}

// NewCartStore hydrates the cart from store. A missing, unreadable or corrupt record yields an
// empty cart; hydration never fails.
func NewCartStore(c context.Context, store storage.Store, m *metrics.Metrics) *CartStore {
	c, span := otel.Tracer.Start(c, "CartStore NewCartStore")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore NewCartStore").
		Str(log.KeyStorageKey, storage.KeyCart).
		Logger()

	cs := &CartStore{store: store, metrics: m, lines: []response.CartLine{}}

	logger = logger.With().Str(log.KeyProcess, "hydrating cart").Logger()
	logger.Trace().Msg("hydrating cart")
	raw, err := store.Get(c, storage.KeyCart)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Trace().Msg("no saved cart, starting empty")
			return cs
		}
		err = fmt.Errorf("failed reading saved cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg("starting with empty cart")
		return cs
	}

	lines, err := decodeLines(raw)
	if err != nil {
		err = fmt.Errorf("failed decoding saved cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg("starting with empty cart")
		return cs
	}
	cs.lines = lines
	logger.Debug().Int(log.KeyCartLines, len(lines)).Msg("hydrated cart")

	return cs
}

func decodeLines(raw string) ([]response.CartLine, error) {
	lines := []response.CartLine{}
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(lines))
	for i, line := range lines {
		if line.Product.ID <= 0 || line.Quantity < 1 || line.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w at index=%d", errInvalidLine, i)
		}
		if _, ok := seen[line.Product.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate productId=%d", errInvalidLine, line.Product.ID)
		}
		seen[line.Product.ID] = struct{}{}
		lines[i] = line.Recompute()
	}
	return lines, nil
}

func (cs *CartStore) indexOf(productID int64) int {
	for i, line := range cs.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (cs *CartStore) copyLines() []response.CartLine {
	lines := make([]response.CartLine, len(cs.lines))
	copy(lines, cs.lines)
	return lines
}

// commit runs with mu held. It persists the lines, then hands over to notifyMu so that
// subscribers see snapshots in mutation order, and finally releases mu.
func (cs *CartStore) commit(c context.Context, operation string, persist func(c context.Context) error) {
	span := trace.SpanFromContext(c)
	logger := zerolog.Ctx(c)

	if err := persist(c); err != nil {
		err = fmt.Errorf("failed persisting cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	if cs.metrics != nil {
		cs.metrics.CartMutations.WithLabelValues(operation).Inc()
	}

	cart := response.NewCart(cs.copyLines())
	subscribers := make([]subscriber, len(cs.subscribers))
	copy(subscribers, cs.subscribers)

	cs.notifyMu.Lock()
	cs.mu.Unlock()
	defer cs.notifyMu.Unlock()

	for _, sub := range subscribers {
		sub.handler(cart)
	}
	logger.Trace().
		Int(log.KeySubscription, len(subscribers)).
		Str(log.KeyCartTotal, cart.Total.String()).
		Int(log.KeyCartItemCount, cart.ItemCount).
		Msg("notified subscribers")
}

func (cs *CartStore) save(c context.Context) error {
	payload, err := json.Marshal(cs.lines)
	if err != nil {
		return err
	}
	return cs.store.Set(c, storage.KeyCart, string(payload))
}

func (cs *CartStore) remove(c context.Context) error {
	return cs.store.Remove(c, storage.KeyCart)
}

// AddProduct merges quantity into the existing line for product, keeping that line's unit
// price, or appends a new line priced at product.FinalPrice(). Quantity must be positive.
func (cs *CartStore) AddProduct(c context.Context, product productRes.Product, quantity int) {
	_ = cs.add(c, "CartStore AddProduct", product, quantity, false)
}

// AddProductWithinStock is AddProduct refusing with ErrOutOfStock when the line would hold more
// than product.Stock. The check and the add happen under the same lock.
func (cs *CartStore) AddProductWithinStock(
	c context.Context,
	product productRes.Product,
	quantity int,
) error {
	return cs.add(c, "CartStore AddProductWithinStock", product, quantity, true)
}

func (cs *CartStore) add(
	c context.Context,
	spanName string,
	product productRes.Product,
	quantity int,
	withinStock bool,
) error {
	c, span := otel.Tracer.Start(
		c,
		spanName,
		trace.WithAttributes(
			attribute.Int64(log.KeyProductID, product.ID),
			attribute.Int(log.KeyQuantity, quantity),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, spanName).
		Int64(log.KeyProductID, product.ID).
		Int(log.KeyQuantity, quantity).
		Logger()
	c = logger.WithContext(c)

	cs.mu.Lock()
	i := cs.indexOf(product.ID)
	if withinStock {
		inCart := 0
		if i >= 0 {
			inCart = cs.lines[i].Quantity
		}
		if inCart+quantity > product.Stock {
			cs.mu.Unlock()
			err := fmt.Errorf(
				"productId=%d stock=%d requested=%d with error=%w",
				product.ID,
				product.Stock,
				inCart+quantity,
				inErrors.ErrOutOfStock,
			)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	if i >= 0 {
		logger.Trace().Msg("merging into existing line")
		cs.lines[i].Quantity += quantity
		cs.lines[i] = cs.lines[i].Recompute()
	} else {
		logger.Trace().Msg("appending new line")
		cs.lines = append(cs.lines, response.CartLine{
			Product:   product,
			Quantity:  quantity,
			UnitPrice: product.FinalPrice(),
		}.Recompute())
	}
	logger.Debug().Msg("added product")
	cs.commit(c, "add", cs.save)
	return nil
}

// RemoveProduct is a no-op for a product that is not in the cart.
func (cs *CartStore) RemoveProduct(c context.Context, productID int64) {
	c, span := otel.Tracer.Start(
		c,
		"CartStore RemoveProduct",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, productID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore RemoveProduct").
		Int64(log.KeyProductID, productID).
		Logger()
	c = logger.WithContext(c)

	cs.mu.Lock()
	if i := cs.indexOf(productID); i >= 0 {
		cs.lines = append(cs.lines[:i:i], cs.lines[i+1:]...)
		logger.Debug().Msg("removed product")
	}
	cs.commit(c, "remove", cs.save)
}

// UpdateQuantity sets the quantity of an existing line. A quantity below one or an unknown
// product leaves the cart untouched.
func (cs *CartStore) UpdateQuantity(c context.Context, productID int64, quantity int) {
	c, span := otel.Tracer.Start(
		c,
		"CartStore UpdateQuantity",
		trace.WithAttributes(
			attribute.Int64(log.KeyProductID, productID),
			attribute.Int(log.KeyQuantity, quantity),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartStore UpdateQuantity").
		Int64(log.KeyProductID, productID).
		Int(log.KeyQuantity, quantity).
		Logger()
	c = logger.WithContext(c)

	cs.mu.Lock()
	i := cs.indexOf(productID)
	if quantity <= 0 || i < 0 {
		cs.mu.Unlock()
		logger.Debug().Msg("ignored quantity update")
		return
	}
	cs.lines[i].Quantity = quantity
	cs.lines[i] = cs.lines[i].Recompute()
	logger.Debug().Msg("updated quantity")
	cs.commit(c, "update", cs.save)
}

// Clear empties the cart and deletes the saved record.
func (cs *CartStore) Clear(c context.Context) {
	c, span := otel.Tracer.Start(c, "CartStore Clear")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartStore Clear").Logger()
	c = logger.WithContext(c)

	cs.mu.Lock()
	cs.lines = []response.CartLine{}
	logger.Debug().Msg("cleared cart")
	cs.commit(c, "clear", cs.remove)
}

func (cs *CartStore) Total() decimal.Decimal {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	total := decimal.Zero
	for _, line := range cs.lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

func (cs *CartStore) ItemCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	count := 0
	for _, line := range cs.lines {
		count += line.Quantity
	}
	return count
}

// Snapshot returns a copy of the lines; changing it does not affect the store.
func (cs *CartStore) Snapshot() []response.CartLine {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.copyLines()
}

func (cs *CartStore) Cart() response.Cart {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return response.NewCart(cs.copyLines())
}

func (cs *CartStore) Subscribe(handler Handler) SubscriptionToken {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.nextToken++
	cs.subscribers = append(cs.subscribers, subscriber{token: cs.nextToken, handler: handler})
	return cs.nextToken
}

// Unsubscribe reports whether token was subscribed.
func (cs *CartStore) Unsubscribe(token SubscriptionToken) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for i, sub := range cs.subscribers {
		if sub.token == token {
			cs.subscribers = append(cs.subscribers[:i:i], cs.subscribers[i+1:]...)
			return true
		}
	}
	return false
}

func (cs *CartStore) Subscribers() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.subscribers)
}
