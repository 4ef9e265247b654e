package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
)

type seedItem struct {
	name        string
	description string
	price       float64
}

type seedCategory struct {
	name     string
	iconName string
	items    []seedItem
}

var sampleMenu = []seedCategory{
	{name: "Coffee", iconName: "coffee", items: []seedItem{
		{name: "Cappuccino", description: "Espresso with steamed milk foam", price: 4.5},
		{name: "Latte", description: "Espresso with steamed milk", price: 4.75},
	}},
	{name: "Tea", iconName: "leaf", items: []seedItem{
		{name: "Earl Grey", description: "Black tea with bergamot", price: 3.5},
	}},
	{name: "Pastries", iconName: "croissant", items: []seedItem{
		{name: "Croissant", description: "Buttery, flaky pastry", price: 3.25},
	}},
	{name: "Sandwiches", iconName: "sandwich"},
}

// seed fills an empty menu with sampleMenu. Categories & items are appended in order.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	cats, err := cli.categorySvc.Query(ctx)
	if err != nil {
		return err
	}
	if len(cats) > 0 {
		fmt.Println("The menu already has categories, nothing to seed.")
		return nil
	}

	var count int
	for _, sc := range sampleMenu {
		cat, err := cli.categorySvc.Create(ctx, category.NewCategory{Name: sc.name, IconName: sc.iconName})
		if err != nil {
			return err
		}
		for _, si := range sc.items {
			_, err := cli.menuSvc.Create(ctx, menu.NewMenuItem{
				Name:        si.name,
				Description: si.description,
				Price:       null.Float64From(si.price),
				CategoryID:  cat.ID,
			})
			if err != nil {
				return errors.Wrapf(err, "creating menu item %q", si.name)
			}
			count++
		}
	}
	fmt.Printf("Seeded %d categories & %d menu items.\n", len(sampleMenu), count)
	return nil
}
