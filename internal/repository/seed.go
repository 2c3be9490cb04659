package repository

import (
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// DemoCategories returns the categories used to seed a development catalog
func DemoCategories() []*domain.Category {
	return []*domain.Category{
		{ID: 1, Name: "Electronics", Description: "Computers, phones and accessories"},
		{ID: 2, Name: "Clothing", Description: "Apparel for every age and occasion"},
		{ID: 3, Name: "Home", Description: "Furniture, decoration and kitchenware"},
		{ID: 4, Name: "Sports", Description: "Sports equipment and fitness gear"},
		{ID: 5, Name: "Books", Description: "Fiction, education and entertainment"},
		{ID: 6, Name: "Toys", Description: "Toys and games for all ages"},
	}
}

// DemoProducts returns the products used to seed a development catalog.
// Owner IDs 1 and 2 refer to the demo sellers created at startup.
func DemoProducts() []*domain.Product {
	p := func(id int64, title, desc, price string, stock int, category, owner int64, created string) *domain.Product {
		createdAt, _ := time.Parse(time.RFC3339, created)
		return &domain.Product{
			ID:          id,
			Title:       title,
			Description: desc,
			Price:       decimal.RequireFromString(price),
			Stock:       stock,
			CategoryID:  category,
			OwnerID:     owner,
			Images:      []string{},
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
	}

	return []*domain.Product{
		p(1, "iPhone 15 Pro", "Titanium smartphone with A17 Pro chip", "999.99", 15, 1, 1, "2024-03-01T09:00:00Z"),
		p(2, "MacBook Air M2", "Thin and light laptop with the M2 chip", "1199.99", 8, 1, 2, "2024-02-28T11:30:00Z"),
		p(3, "Sony WH-1000XM5 Headphones", "Wireless noise cancelling headphones", "299.99", 25, 1, 1, "2024-03-05T16:45:00Z"),
		p(4, "Premium Basic T-Shirt", "Organic cotton t-shirt, regular fit", "24.99", 50, 2, 2, "2024-02-20T12:00:00Z"),
		p(5, "Levi's 511 Jeans", "Slim fit jeans in stretch denim", "79.99", 30, 2, 1, "2024-02-25T14:20:00Z"),
		p(6, "Modern 3-Seat Sofa", "Fabric sofa with solid wood legs", "599.99", 5, 3, 2, "2024-02-18T08:15:00Z"),
		p(7, "Non-Stick Cookware Set", "Ten piece aluminium cookware set", "149.99", 12, 3, 1, "2024-02-22T10:45:00Z"),
		p(8, "Adidas Ultraboost Sneakers", "Running shoes with responsive cushioning", "159.99", 20, 4, 2, "2024-03-03T13:20:00Z"),
		p(9, "Samsung Galaxy Tab S9", "11 inch AMOLED tablet with S Pen", "649.99", 10, 1, 1, "2024-02-27T15:10:00Z"),
		p(10, "Nike Soccer Ball", "Size 5 match ball", "29.99", 40, 4, 2, "2024-03-07T09:30:00Z"),
		p(11, "Vintage Record Player", "Belt driven turntable, currently sold out", "189.00", 0, 1, 2, "2024-03-08T10:00:00Z"),
	}
}
