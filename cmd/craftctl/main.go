package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/fx"
	"golang.org/x/term"

	"crafthub/internal/account"
	"crafthub/internal/app"
	"crafthub/internal/cart"
	"crafthub/internal/notify"
	"crafthub/internal/orders"
	"crafthub/internal/profile"
	"crafthub/internal/session"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var (
		sessions *session.Store
		accounts *account.Client
		carts    *cart.Store
		notices  *notify.Store
		sales    *orders.Store
	)
	application := fx.New(
		app.Module(app.Params{ProfileName: profileName}),
		fx.Populate(&sessions, &accounts, &carts, &notices, &sales),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer stopCancel()
		_ = application.Stop(stopCtx)
	}()

	switch args[0] {
	case "login":
		cmdLogin(ctx, accounts, args[1:])
	case "register":
		cmdRegister(ctx, accounts, args[1:])
	case "passwd":
		cmdPasswd(ctx, accounts)
	case "logout":
		fatalOn(accounts.Logout())
		fmt.Println("Logged out.")
	case "whoami":
		cmdWhoami(sessions, *jsonFlag)
	case "cart":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: craftctl cart <list|add|set|rm|clear> [args]")
			os.Exit(1)
		}
		cmdCart(ctx, carts, args[1], args[2:], *jsonFlag)
	case "orders":
		cmdOrders(ctx, sales, args[1:], *jsonFlag)
	case "notifications":
		cmdNotifications(ctx, notices, args[1:], *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: craftctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  login [email]          Sign in (prompts for password)")
	fmt.Fprintln(os.Stderr, "  register [email]       Create an account (prompts for details)")
	fmt.Fprintln(os.Stderr, "  passwd                 Change the account password")
	fmt.Fprintln(os.Stderr, "  logout                 Clear the stored session")
	fmt.Fprintln(os.Stderr, "  whoami                 Show the signed-in identity")
	fmt.Fprintln(os.Stderr, "  cart list              Show the cart")
	fmt.Fprintln(os.Stderr, "  cart add <product>     Add one unit of a product")
	fmt.Fprintln(os.Stderr, "  cart set <product> <n> Set a line's quantity")
	fmt.Fprintln(os.Stderr, "  cart rm <product>      Remove a line")
	fmt.Fprintln(os.Stderr, "  cart clear             Empty the cart")
	fmt.Fprintln(os.Stderr, "  orders [sales]         List purchases (or sales)")
	fmt.Fprintln(os.Stderr, "  notifications [read|clear]  List, mark read or clear")
}

func fatalOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cmdLogin(ctx context.Context, accounts *account.Client, args []string) {
	email := ""
	if len(args) > 0 {
		email = args[0]
	} else {
		email = promptLine(bufio.NewReader(os.Stdin), "Email")
	}
	password := promptPassword("Password")

	fatalOn(accounts.Login(ctx, email, password))
	fmt.Println("Logged in.")
}

func promptLine(reader *bufio.Reader, label string) string {
	fmt.Print(label + ": ")
	line, err := reader.ReadString('\n')
	fatalOn(err)
	return line[:len(line)-1]
}

func promptPassword(label string) string {
	fmt.Print(label + ": ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	fatalOn(err)
	return string(pw)
}

func cmdRegister(ctx context.Context, accounts *account.Client, args []string) {
	reader := bufio.NewReader(os.Stdin)

	email := ""
	if len(args) > 0 {
		email = args[0]
	} else {
		email = promptLine(reader, "Email")
	}
	fullName := promptLine(reader, "Full name")
	phone := promptLine(reader, "Phone (e.g. +375291234567)")
	password := promptPassword("Password")

	fatalOn(accounts.Register(ctx, account.Registration{
		Email:       email,
		Password:    password,
		FullName:    fullName,
		PhoneNumber: phone,
	}))
	fmt.Println("Registered. Sign in with: craftctl login " + email)
}

func cmdPasswd(ctx context.Context, accounts *account.Client) {
	oldPassword := promptPassword("Current password")
	newPassword := promptPassword("New password")
	fatalOn(accounts.ChangePassword(ctx, oldPassword, newPassword))
	fmt.Println("Password changed.")
}

func cmdWhoami(sessions *session.Store, jsonOut bool) {
	ident, ok := sessions.Identity()
	if !ok {
		fmt.Println("Not signed in.")
		return
	}
	if jsonOut {
		outputJSON(ident)
		return
	}
	fmt.Printf("%s <%s> (%s)\n", ident.FullName, ident.Email, ident.Role)
}

func cmdCart(ctx context.Context, carts *cart.Store, subcmd string, args []string, jsonOut bool) {
	switch subcmd {
	case "list":
		fatalOn(carts.Fetch(ctx))
		items := carts.Items()
		if jsonOut {
			outputJSON(items)
			return
		}
		if len(items) == 0 {
			fmt.Println("Cart is empty.")
			return
		}
		for _, line := range items {
			fmt.Printf("%-6d %-40s %8s x%d\n", line.ProductID, line.ProductName, line.Price, line.Quantity)
		}
		fmt.Printf("Total: %s\n", carts.Total())
	case "add":
		fatalOn(carts.AddItem(ctx, argInt64(args, 0, "product id")))
		fmt.Printf("Total: %s\n", carts.Total())
	case "set":
		id := argInt64(args, 0, "product id")
		qty := int(argInt64(args, 1, "quantity"))
		fatalOn(carts.UpdateQuantity(ctx, id, qty))
		// The server may clamp; show what it kept.
		for _, line := range carts.Items() {
			if line.ProductID == id {
				fmt.Printf("Quantity: %d\n", line.Quantity)
			}
		}
	case "rm":
		fatalOn(carts.RemoveItem(ctx, argInt64(args, 0, "product id")))
		fmt.Printf("Total: %s\n", carts.Total())
	case "clear":
		fatalOn(carts.ClearServer(ctx))
		fmt.Println("Cart cleared.")
	default:
		fmt.Fprintf(os.Stderr, "unknown cart subcommand: %s\n", subcmd)
		os.Exit(1)
	}
}

func cmdOrders(ctx context.Context, store *orders.Store, args []string, jsonOut bool) {
	sales := len(args) > 0 && args[0] == "sales"

	var list []orders.Order
	if sales {
		fatalOn(store.FetchSales(ctx))
		list = store.Sales()
	} else {
		fatalOn(store.FetchPurchases(ctx))
		list = store.Purchases()
	}

	if jsonOut {
		outputJSON(list)
		return
	}
	if len(list) == 0 {
		fmt.Println("No orders.")
		return
	}
	for _, o := range list {
		fmt.Printf("#%-6d %-10s %10s  %s\n", o.ID, o.Status, o.TotalAmount, o.ShippingAddress)
		for _, item := range o.Items {
			fmt.Printf("        %s x%d @ %s\n", item.ProductName, item.Quantity, item.PriceAtPurchase)
		}
	}
}

func cmdNotifications(ctx context.Context, notices *notify.Store, args []string, jsonOut bool) {
	if len(args) > 0 {
		switch args[0] {
		case "read":
			fatalOn(notices.Fetch(ctx))
			fatalOn(notices.MarkAllRead(ctx))
			fmt.Println("Marked read.")
			return
		case "clear":
			fatalOn(notices.ClearAll(ctx))
			fmt.Println("Cleared.")
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown notifications subcommand: %s\n", args[0])
			os.Exit(1)
		}
	}

	fatalOn(notices.Fetch(ctx))
	list := notices.Notifications()
	if jsonOut {
		outputJSON(list)
		return
	}
	if len(list) == 0 {
		fmt.Println("No notifications.")
		return
	}
	for _, n := range list {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s %-60s %s\n", marker, n.Message, n.CreatedAt)
	}
}

func argInt64(args []string, i int, what string) int64 {
	if i >= len(args) {
		fmt.Fprintf(os.Stderr, "missing %s\n", what)
		os.Exit(1)
	}
	v, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s: %q\n", what, args[i])
		os.Exit(1)
	}
	return v
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
