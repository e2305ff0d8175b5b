// Package testmodels holds record types shared by the package tests.
package testmodels

import (
	"strings"
	"time"

	"github.com/jacentio/dine/schema"
)

type Category int

const (
	Dairy Category = iota + 1
	Bakery
	Sweets
	Meat
	Vegetables
	Drinks
)

type Item struct {
	Category Category `json:"category"`
	Price    float64  `json:"price" validate:"gte=0"`
	Units    int      `json:"units" validate:"gte=0"`
}

type Order struct {
	Date         time.Time `feature:"date"`
	Value        float64   `feature:"value"`
	Email        string    `feature:"email" validate:"email"`
	Items        []Item    `feature:"items" validate:"dive"`
	DiscountCode *string   `feature:"discount_code"`
	DiscountRate float64   `feature:"discount_rate,optional"`
}

// Featurize derives serving features from an order.
func (o Order) Featurize() map[string]any {
	units := 0
	for _, it := range o.Items {
		units += it.Units
	}
	_, domain, _ := strings.Cut(o.Email, "@")
	return map[string]any{
		"value":        o.Value * (1 - o.DiscountRate),
		"units":        units,
		"email_domain": domain,
		"discounted":   o.DiscountCode != nil,
	}
}

// Profile has non-zero defaults.
type Profile struct {
	Name    string            `feature:"name" validate:"required"`
	Tier    string            `feature:"tier,optional" validate:"oneof=free pro team"`
	Score   int               `feature:"score,optional"`
	Active  bool              `feature:"active,optional"`
	Tags    []string          `feature:"tags,optional"`
	Labels  map[string]string `feature:"labels,optional"`
	Scratch string            `feature:"-"`
}

// DefaultProfile supplies the defaults of optional Profile fields.
var DefaultProfile = Profile{Tier: "free", Score: 10, Active: true}

// Registry returns a registry with Order and Profile registered.
func Registry() *schema.Registry {
	r := schema.NewRegistry()
	schema.MustRegister[Order](r)
	schema.MustRegister[Profile](r, schema.WithDefaults(DefaultProfile))
	return r
}

// SampleOrder returns the order used across store tests.
func SampleOrder() Order {
	return Order{
		Date:  time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
		Value: 12.34,
		Email: "buyer@good.store",
		Items: []Item{
			{Category: Dairy, Price: 1.29, Units: 1},
			{Category: Bakery, Price: 0.49, Units: 3},
		},
	}
}

// OtherOrder returns a second, distinct order.
func OtherOrder() Order {
	return Order{
		Date:  time.Date(2022, 2, 2, 11, 0, 0, 0, time.UTC),
		Value: 12.34,
		Email: "mark@good.store",
		Items: []Item{
			{Category: Bakery, Price: 0.49, Units: 3},
			{Category: Dairy, Price: 1.29, Units: 1},
		},
	}
}
