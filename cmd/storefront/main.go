// Command storefront is a terminal storefront on top of the checkout
// orchestrator. It signs in with STOREFRONT_EMAIL and STOREFRONT_PASSWORD.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/example/phone-store/internal/api/middleware"
	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/checkout"
	"github.com/example/phone-store/internal/client"
	"github.com/example/phone-store/internal/config"
	"github.com/example/phone-store/internal/domain/order"
	"github.com/google/uuid"
)

const usage = `usage: storefront <command> [args]

commands:
  products [keyword]
  cart
  add <product-id> <quantity>
  update <item-id> <quantity>
  remove <item-id>
  checkout -recipient NAME -phone PHONE -address ADDR [-note NOTE] [-method COD|PAYPAL]
  pay <order-id> <provider-order-id> [payer-id]
  pay-cancelled <order-id>
  retry <order-id>
  orders [status]
  cancel <order-id>`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	c, err := client.New(cfg.StorefrontAPIURL, &http.Client{Timeout: cfg.StorefrontTimeout})
	if err != nil {
		log.Fatal(err)
	}

	ctx := middleware.WithCorrelationID(context.Background(), uuid.New().String())
	if err := run(ctx, c, os.Args[1], os.Args[2:]); err != nil {
		if _, ok := apperr.As(err); !ok {
			log.Fatalf("error: %v", err)
		}
		log.Fatalf("error: %s", checkout.UserMessage(err))
	}
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) error {
	if cmd == "products" {
		keyword := ""
		if len(args) > 0 {
			keyword = args[0]
		}
		products, err := c.ListProducts(ctx, keyword, "")
		if err != nil {
			return err
		}
		return printJSON(products)
	}

	session, err := login(ctx, c)
	if err != nil {
		return err
	}
	orch := checkout.New(c)

	switch cmd {
	case "cart":
		return result(orch.LoadCart(ctx, session))
	case "add":
		if len(args) != 2 {
			return usageError()
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError()
		}
		return result(orch.AddItem(ctx, session, args[0], qty))
	case "update":
		if len(args) != 2 {
			return usageError()
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError()
		}
		return result(orch.UpdateItem(ctx, session, args[0], qty))
	case "remove":
		if len(args) != 1 {
			return usageError()
		}
		return result(orch.RemoveItem(ctx, session, args[0]))
	case "checkout":
		return submit(ctx, orch, session, args)
	case "pay":
		if len(args) < 2 {
			return usageError()
		}
		approval := checkout.Approval{ProviderOrderID: args[1]}
		if len(args) > 2 {
			approval.PayerID = args[2]
		}
		return result(orch.CompletePayment(ctx, session, args[0], approval))
	case "pay-cancelled":
		if len(args) != 1 {
			return usageError()
		}
		return result(orch.CompletePayment(ctx, session, args[0], checkout.Approval{Cancelled: true}))
	case "retry":
		if len(args) != 1 {
			return usageError()
		}
		return result(orch.RetryPayment(ctx, session, args[0]))
	case "orders":
		var status order.Status
		if len(args) > 0 {
			status = order.Status(args[0])
		}
		return result(c.ListOrders(ctx, session.Token, status))
	case "cancel":
		if len(args) != 1 {
			return usageError()
		}
		return result(orch.Cancel(ctx, session, args[0]))
	default:
		return usageError()
	}
}

func submit(ctx context.Context, orch *checkout.Orchestrator, session checkout.Session, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var shipping order.ShippingInfo
	fs.StringVar(&shipping.RecipientName, "recipient", "", "recipient name")
	fs.StringVar(&shipping.Phone, "phone", "", "recipient phone")
	fs.StringVar(&shipping.ShippingAddress, "address", "", "shipping address")
	fs.StringVar(&shipping.Note, "note", "", "delivery note")
	method := fs.String("method", string(order.PaymentCOD), "COD or PAYPAL")
	if err := fs.Parse(args); err != nil {
		return usageError()
	}

	c, err := orch.LoadCart(ctx, session)
	if err != nil {
		return err
	}
	out, err := orch.Submit(ctx, session, c, shipping, order.PaymentMethod(*method))
	if out != nil {
		if perr := printJSON(out); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if out.Payment != nil {
		fmt.Printf("\nApprove the payment at %s\nthen run: storefront pay %s %s\n", out.Payment.ApprovalURL, out.Order.ID, out.Payment.ProviderOrderID)
	}
	return nil
}

func login(ctx context.Context, c *client.Client) (checkout.Session, error) {
	email, password := os.Getenv("STOREFRONT_EMAIL"), os.Getenv("STOREFRONT_PASSWORD")
	if email == "" || password == "" {
		return checkout.Session{}, errors.New("STOREFRONT_EMAIL and STOREFRONT_PASSWORD must be set")
	}
	auth, err := c.Login(ctx, email, password)
	if err != nil {
		return checkout.Session{}, err
	}
	return checkout.Session{UserID: auth.User.ID, Token: auth.AccessToken}, nil
}

func result[T any](v T, err error) error {
	if err != nil {
		return err
	}
	return printJSON(v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError() error {
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(2)
	return nil
}
