package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/phone-store/internal/domain/category"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/example/phone-store/internal/domain/product"
	"github.com/example/phone-store/internal/domain/user"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/example/phone-store/internal/readmodel"
)

// Handler answers list and lookup queries from the projected read models.
// Single-order reads that must be current go through the command side.
type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// ProductFilter narrows ListProducts. Zero value lists every active product.
type ProductFilter struct {
	Keyword         string
	Brand           string
	CategoryID      string
	IncludeInactive bool
}

// Products
func (h *Handler) GetProduct(id string) (*readmodel.ProductReadModel, error) {
	data, ok, err := h.readStore.Get(readmodel.CollectionProducts, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return data.(*readmodel.ProductReadModel), nil
}

func (h *Handler) ListProducts(filter ProductFilter) ([]*readmodel.ProductReadModel, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))

	products := make([]*readmodel.ProductReadModel, 0, len(items))
	for _, item := range items {
		p := item.(*readmodel.ProductReadModel)
		if !filter.IncludeInactive && p.Status != string(product.StatusActive) {
			continue
		}
		if filter.Brand != "" && !strings.EqualFold(p.Brand, filter.Brand) {
			continue
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

// Categories

// ListCategories returns every category by name, each with its number of
// active products
func (h *Handler) ListCategories() ([]*readmodel.CategoryReadModel, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	counts, err := h.activeProductsByCategory()
	if err != nil {
		return nil, err
	}

	categories := make([]*readmodel.CategoryReadModel, 0, len(items))
	for _, item := range items {
		c := *item.(*readmodel.CategoryReadModel)
		c.ProductCount = counts[c.ID]
		categories = append(categories, &c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (h *Handler) GetCategory(id string) (*readmodel.CategoryReadModel, error) {
	data, ok, err := h.readStore.Get(readmodel.CollectionCategories, id)
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	if !ok {
		return nil, category.ErrCategoryNotFound
	}
	counts, err := h.activeProductsByCategory()
	if err != nil {
		return nil, err
	}
	c := *data.(*readmodel.CategoryReadModel)
	c.ProductCount = counts[c.ID]
	return &c, nil
}

func (h *Handler) activeProductsByCategory() (map[string]int, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionProducts)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	counts := make(map[string]int)
	for _, item := range items {
		if p := item.(*readmodel.ProductReadModel); p.CategoryID != "" && p.Status == string(product.StatusActive) {
			counts[p.CategoryID]++
		}
	}
	return counts, nil
}

// Inventory
func (h *Handler) GetInventory(productID string) (*readmodel.InventoryReadModel, error) {
	data, ok, err := h.readStore.Get(readmodel.CollectionInventory, productID)
	if err != nil {
		return nil, fmt.Errorf("get inventory %s: %w", productID, err)
	}
	if !ok {
		return &readmodel.InventoryReadModel{ProductID: productID}, nil
	}
	return data.(*readmodel.InventoryReadModel), nil
}

// Orders
func (h *Handler) ListOrdersByUser(userID string, status order.Status) ([]*readmodel.OrderReadModel, error) {
	return h.listOrders(func(o *readmodel.OrderReadModel) bool {
		return o.UserID == userID && (status == "" || o.Status == string(status))
	})
}

// SearchOrders is the admin listing. The keyword matches the order code,
// recipient name or phone, case-insensitively.
func (h *Handler) SearchOrders(status order.Status, keyword string) ([]*readmodel.OrderReadModel, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	return h.listOrders(func(o *readmodel.OrderReadModel) bool {
		if status != "" && o.Status != string(status) {
			return false
		}
		if keyword == "" {
			return true
		}
		return strings.Contains(strings.ToLower(o.OrderCode), keyword) ||
			strings.Contains(strings.ToLower(o.RecipientName), keyword) ||
			strings.Contains(o.Phone, keyword)
	})
}

// GetOrderByCode resolves a human-readable code for its owner
func (h *Handler) GetOrderByCode(userID, code string) (*readmodel.OrderReadModel, error) {
	id, ok, err := h.readStore.Get(readmodel.CollectionOrderCodes, code)
	if err != nil {
		return nil, fmt.Errorf("lookup order code %s: %w", code, err)
	}
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	orderID, _ := id.(string)

	data, ok, err := h.readStore.Get(readmodel.CollectionOrders, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o := data.(*readmodel.OrderReadModel)
	if o.UserID != userID {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (h *Handler) listOrders(keep func(*readmodel.OrderReadModel) bool) ([]*readmodel.OrderReadModel, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionOrders)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]*readmodel.OrderReadModel, 0)
	for _, item := range items {
		if o := item.(*readmodel.OrderReadModel); keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// Users
func (h *Handler) GetUser(id string) (*readmodel.UserReadModel, error) {
	data, ok, err := h.readStore.Get(readmodel.CollectionUsers, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return data.(*readmodel.UserReadModel), nil
}

// ListUsers is the admin user listing, newest first. The keyword matches
// email, name or phone.
func (h *Handler) ListUsers(keyword string) ([]*readmodel.UserReadModel, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	users := make([]*readmodel.UserReadModel, 0, len(items))
	for _, item := range items {
		u := item.(*readmodel.UserReadModel)
		if keyword != "" &&
			!strings.Contains(u.Email, keyword) &&
			!strings.Contains(strings.ToLower(u.Name), keyword) &&
			!strings.Contains(u.Phone, keyword) {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}
