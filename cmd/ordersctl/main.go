// Command ordersctl drives the orders and inventory services over HTTP.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ordersctl",
		Usage: "inspect and manage orders and catalog products",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "orders-url",
				Value:   "http://localhost:8081",
				EnvVars: []string{"ORDERS_SERVICE_URL"},
			},
			&cli.StringFlag{
				Name:    "inventory-url",
				Value:   "http://localhost:8080",
				EnvVars: []string{"INVENTORY_SERVICE_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
			},
		},
		Commands: []*cli.Command{
			ordersCommand(),
			productsCommand(),
		},
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "enriched order operations",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list all orders with current product data",
				Action: func(c *cli.Context) error {
					return ordersClient(c).get(c.Context, "/api/orders", c.App.Writer)
				},
			},
			{
				Name:      "get",
				Usage:     "show one order",
				ArgsUsage: "<order-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c)
					if err != nil {
						return err
					}
					return ordersClient(c).get(c.Context, "/api/orders/"+id, c.App.Writer)
				},
			},
			{
				Name:  "create",
				Usage: "create a PENDING order",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "item",
						Usage:    "line item as PRODUCT:QUANTITY:PRICE, repeatable",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					items, err := parseItems(c.StringSlice("item"))
					if err != nil {
						return err
					}
					return ordersClient(c).post(c.Context, "/api/orders", map[string]any{"items": items}, c.App.Writer)
				},
			},
			transitionCommand("confirm"),
			transitionCommand("cancel"),
		},
	}
}

func transitionCommand(name string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     name + " an order",
		ArgsUsage: "<order-id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c)
			if err != nil {
				return err
			}
			return ordersClient(c).post(c.Context, "/api/orders/"+id+"/"+name, nil, c.App.Writer)
		},
	}
}

func productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "catalog lookups",
		Subcommands: []*cli.Command{
			{
				Name: "list",
				Action: func(c *cli.Context) error {
					return inventoryClient(c).get(c.Context, "/api/products", c.App.Writer)
				},
			},
			{
				Name:      "get",
				ArgsUsage: "<product-id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c)
					if err != nil {
						return err
					}
					return inventoryClient(c).get(c.Context, "/api/products/"+id, c.App.Writer)
				},
			},
		},
	}
}

func ordersClient(c *cli.Context) *apiClient {
	return newAPIClient(c.String("orders-url"), c.Duration("timeout"))
}

func inventoryClient(c *cli.Context) *apiClient {
	return newAPIClient(c.String("inventory-url"), c.Duration("timeout"))
}

func requireArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage), 2)
	}
	return c.Args().First(), nil
}
