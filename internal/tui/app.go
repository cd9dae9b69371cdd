// Package tui is the interactive terminal client. One page per surface,
// repainted from bus events; the stores own all state, the shell only
// renders and dispatches.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"crafthub/internal/account"
	"crafthub/internal/bus"
	"crafthub/internal/cart"
	"crafthub/internal/catalog"
	"crafthub/internal/chat"
	"crafthub/internal/config"
	"crafthub/internal/gateway"
	"crafthub/internal/notify"
	"crafthub/internal/orders"
	"crafthub/internal/reviews"
	"crafthub/internal/session"
	"crafthub/internal/tui/keys"
	"crafthub/internal/tui/views"
)

const flashDuration = 5 * time.Second

// Stores bundles everything the shell renders from.
type Stores struct {
	Sessions *session.Store
	Cart     *cart.Store
	Notify   *notify.Store
	Chat     *chat.Store
	Catalog  *catalog.Client
	Orders   *orders.Store
	Reviews  *reviews.Client
	Account  *account.Client
}

// App is the TUI application shell.
type App struct {
	app      *tview.Application
	pages    *tview.Pages
	registry *keys.Registry
	stores   Stores
	bus      *bus.Bus
	cfg      *config.Config
	logger   *zap.Logger
	flash    *views.Flash

	statusBar   *views.StatusBar
	loginView   *views.LoginView
	catalogV    *views.CatalogView
	productV    *views.ProductView
	cartV       *views.CartView
	ordersV     *views.OrdersView
	dialogues   *views.DialogueList
	thread      *views.ThreadView
	composer    *views.Composer
	notifV      *views.NotificationsView
	profileV    *views.ProfileView
	adminV      *views.AdminView
	mineV       *views.MyProductsView
	productForm *views.ProductForm
	usersV      *views.UsersView
	promptIn    *tview.InputField

	current     catalog.Product  // product open on the detail page
	currentRevs []reviews.Review // its reviews, numbered for reporting

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(profileName string, cfg *config.Config, b *bus.Bus, stores Stores, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:         tview.NewApplication(),
		pages:       tview.NewPages(),
		registry:    keys.NewRegistry(),
		stores:      stores,
		bus:         b,
		cfg:         cfg,
		logger:      logger,
		flash:       &views.Flash{},
		statusBar:   views.NewStatusBar(),
		loginView:   views.NewLoginView(),
		catalogV:    views.NewCatalogView(),
		productV:    views.NewProductView(),
		cartV:       views.NewCartView(),
		ordersV:     views.NewOrdersView(),
		dialogues:   views.NewDialogueList(),
		thread:      views.NewThreadView(),
		composer:    views.NewComposer(),
		notifV:      views.NewNotificationsView(),
		profileV:    views.NewProfileView(),
		adminV:      views.NewAdminView(),
		mineV:       views.NewMyProductsView(),
		productForm: views.NewProductForm(),
		usersV:      views.NewUsersView(),
		promptIn:    tview.NewInputField().SetFieldWidth(0),
		ctx:         ctx,
		cancel:      cancel,
	}

	a.statusBar.SetProfile(profileName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	nav := []struct {
		r    rune
		desc string
		page string
	}{
		{'c', "c:catalog", "catalog"},
		{'b', "b:cart", "cart"},
		{'o', "o:orders", "orders"},
		{'m', "m:chats", "chats"},
		{'n', "n:notifications", "notifications"},
		{'p', "p:profile", "profile"},
	}
	for _, n := range nav {
		page := n.page
		a.registry.AddGlobal(page, &keys.Action{
			Rune: n.r, Key: tcell.KeyRune,
			Description: n.desc, Visible: true,
			Handler: func() { a.show(page) },
		})
	}
	a.registry.AddGlobal("admin", &keys.Action{
		Rune: 'a', Key: tcell.KeyRune,
		Handler: func() {
			if ident, ok := a.stores.Sessions.Identity(); ok && ident.Role == session.RoleAdmin {
				a.show("admin")
			}
		},
	})
	a.registry.AddGlobal("mine", &keys.Action{
		Rune: 'g', Key: tcell.KeyRune,
		Handler: func() {
			if ident, ok := a.stores.Sessions.Identity(); ok && ident.Role == session.RoleSeller {
				a.show("mine")
			}
		},
	})
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.Stop() },
	})

	a.registry.AddPage("catalog", "add", &keys.Action{
		Rune: '+', Key: tcell.KeyRune,
		Description: "+:add to cart", Visible: true,
		Handler: func() {
			if p, ok := a.catalogV.Selected(); ok {
				a.addToCart(p.ID)
			}
		},
	})

	a.registry.AddPage("product", "add", &keys.Action{
		Rune: '+', Key: tcell.KeyRune,
		Description: "+:add to cart", Visible: true,
		Handler: func() { a.addToCart(a.current.ID) },
	})
	a.registry.AddPage("product", "message", &keys.Action{
		Rune: 'w', Key: tcell.KeyRune,
		Description: "w:write seller", Visible: true,
		Handler: func() { a.messageSeller(a.current) },
	})
	a.registry.AddPage("product", "report", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:report review", Visible: true,
		Handler: func() { a.reportReview() },
	})

	a.registry.AddPage("mine", "new", &keys.Action{
		Rune: '+', Key: tcell.KeyRune,
		Description: "+:new product", Visible: true,
		Handler: func() { a.openProductForm(nil) },
	})
	a.registry.AddPage("mine", "edit", &keys.Action{
		Rune: 'e', Key: tcell.KeyRune,
		Description: "e:edit", Visible: true,
		Handler: func() {
			if p, ok := a.mineV.Selected(); ok {
				a.openProductForm(&p)
			}
		},
	})

	a.registry.AddPage("cart", "inc", &keys.Action{
		Rune: '+', Key: tcell.KeyRune,
		Description: "+/-:quantity", Visible: true,
		Handler: func() { a.bumpQuantity(1) },
	})
	a.registry.AddPage("cart", "dec", &keys.Action{
		Rune: '-', Key: tcell.KeyRune,
		Handler: func() { a.bumpQuantity(-1) },
	})
	a.registry.AddPage("cart", "remove", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:remove", Visible: true,
		Handler: func() {
			if line, ok := a.cartV.Selected(); ok {
				a.async("remove", func(ctx context.Context) error {
					return a.stores.Cart.RemoveItem(ctx, line.ProductID)
				})
			}
		},
	})
	a.registry.AddPage("cart", "clear", &keys.Action{
		Rune: 'x', Key: tcell.KeyRune,
		Description: "x:clear", Visible: true,
		Handler: func() {
			a.async("clear cart", func(ctx context.Context) error {
				return a.stores.Cart.ClearServer(ctx)
			})
		},
	})
	a.registry.AddPage("cart", "checkout", &keys.Action{
		Key:         tcell.KeyEnter,
		Description: "enter:checkout", Visible: true,
		Handler: func() { a.checkout() },
	})

	a.registry.AddPage("orders", "tab", &keys.Action{
		Key:         tcell.KeyTab,
		Description: "tab:purchases/sales", Visible: true,
		Handler: func() {
			a.ordersV.ShowSales(!a.ordersV.Sales())
			a.reloadOrders()
		},
	})
	a.registry.AddPage("orders", "advance", &keys.Action{
		Rune: 's', Key: tcell.KeyRune,
		Description: "s:advance status", Visible: true,
		Handler: func() { a.advanceOrder() },
	})
	a.registry.AddPage("orders", "cancel", &keys.Action{
		Rune: 'x', Key: tcell.KeyRune,
		Description: "x:cancel", Visible: true,
		Handler: func() {
			if o, ok := a.ordersV.Selected(); ok && !a.ordersV.Sales() {
				a.prompt("Cancellation reason", func(reason string) {
					a.async("cancel order", func(ctx context.Context) error {
						return a.stores.Orders.Cancel(ctx, o.ID, reason)
					})
				})
			}
		},
	})
	a.registry.AddPage("orders", "review", &keys.Action{
		Rune: 'e', Key: tcell.KeyRune,
		Description: "e:review", Visible: true,
		Handler: func() { a.reviewOrder() },
	})
	a.registry.AddPage("orders", "dispute", &keys.Action{
		Rune: 'u', Key: tcell.KeyRune,
		Description: "u:dispute", Visible: true,
		Handler: func() {
			if o, ok := a.ordersV.Selected(); ok && !a.ordersV.Sales() {
				a.async("open dispute", func(ctx context.Context) error {
					return a.stores.Orders.Dispute(ctx, o.ID)
				})
			}
		},
	})

	a.registry.AddPage("chats", "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete", Visible: true,
		Handler: func() {
			if d, ok := a.dialogues.Selected(); ok {
				a.async("delete dialogue", func(ctx context.Context) error {
					return a.stores.Chat.Delete(ctx, d.ID)
				})
			}
		},
	})

	a.registry.AddPage("notifications", "read", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:mark read", Visible: true,
		Handler: func() {
			a.async("mark read", func(ctx context.Context) error {
				return a.stores.Notify.MarkAllRead(ctx)
			})
		},
	})
	a.registry.AddPage("notifications", "clear", &keys.Action{
		Rune: 'x', Key: tcell.KeyRune,
		Description: "x:clear", Visible: true,
		Handler: func() {
			a.async("clear notifications", func(ctx context.Context) error {
				return a.stores.Notify.ClearAll(ctx)
			})
		},
	})

	a.registry.AddPage("profile", "logout", &keys.Action{
		Rune: 'l', Key: tcell.KeyRune,
		Description: "l:logout", Visible: true,
		Handler: func() {
			if err := a.stores.Account.Logout(); err != nil {
				a.flashErr(err)
			}
		},
	})

	a.registry.AddPage("profile", "password", &keys.Action{
		Rune: 'w', Key: tcell.KeyRune,
		Description: "w:password", Visible: true,
		Handler: func() { a.changePassword() },
	})

	a.registry.AddPage("admin", "users", &keys.Action{
		Rune: 'u', Key: tcell.KeyRune,
		Description: "u:users", Visible: true,
		Handler: func() { a.show("users") },
	})
	a.registry.AddPage("users", "toggle", &keys.Action{
		Rune: 't', Key: tcell.KeyRune,
		Description: "t:block/unblock", Visible: true,
		Handler: func() {
			if u, ok := a.usersV.Selected(); ok {
				a.async("toggle user", func(ctx context.Context) error {
					if err := a.stores.Account.ToggleUserStatus(ctx, u.ID); err != nil {
						return err
					}
					a.queue(a.loadUsers)
					return nil
				})
			}
		},
	})
	a.registry.AddPage("users", "role", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:set role", Visible: true,
		Handler: func() { a.setUserRole() },
	})

	a.registry.AddPage("admin", "approve", &keys.Action{
		Rune: 'y', Key: tcell.KeyRune,
		Description: "y:approve", Visible: true,
		Handler: func() { a.moderate(true) },
	})
	a.registry.AddPage("admin", "reject", &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:reject", Visible: true,
		Handler: func() { a.moderate(false) },
	})
}

func (a *App) setupCallbacks() {
	a.loginView.SetOnLogin(func(email, password string) {
		a.async("login", func(ctx context.Context) error {
			if err := a.stores.Account.Login(ctx, email, password); err != nil {
				return err
			}
			a.queue(func() { a.show("catalog") })
			return nil
		})
	})
	a.loginView.SetOnToken(func(token string) {
		a.async("login", func(ctx context.Context) error {
			if err := a.stores.Account.AdoptToken(ctx, token); err != nil {
				return err
			}
			a.queue(func() { a.show("catalog") })
			return nil
		})
	})

	a.catalogV.SetOnOpen(func(p catalog.Product) { a.openProduct(p) })
	a.mineV.SetOnOpen(func(p catalog.Product) { a.openProductForm(&p) })
	a.dialogues.SetOnOpen(func(d chat.Dialogue) { a.openDialogue(d) })

	a.productForm.SetOnSave(func() { a.saveProductForm() })

	a.composer.SetOnSend(func(text string) {
		a.async("send", func(ctx context.Context) error {
			if _, err := a.stores.Chat.Send(ctx, text); err != nil {
				// The composer keeps the text; the flash explains why.
				return err
			}
			a.queue(a.composer.Reset)
			return nil
		})
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	a.pages.AddPage("login", a.loginView, true, false)
	a.pages.AddPage("catalog", a.catalogV, true, true)
	a.pages.AddPage("product", a.productV, true, false)
	a.pages.AddPage("cart", a.cartV, true, false)
	a.pages.AddPage("orders", a.ordersV, true, false)
	a.pages.AddPage("chats", a.dialogues, true, false)
	a.pages.AddPage("chat", chatFlex, true, false)
	a.pages.AddPage("notifications", a.notifV, true, false)
	a.pages.AddPage("profile", a.profileV, true, false)
	a.pages.AddPage("admin", a.adminV, true, false)
	a.pages.AddPage("mine", a.mineV, true, false)
	a.pages.AddPage("product_form", a.productForm, true, false)
	a.pages.AddPage("users", a.usersV, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "chat":
				_ = a.stores.Chat.Selection().Clear()
				a.show("chats")
				return nil
			case "product":
				a.show("catalog")
				return nil
			case "product_form":
				a.show("mine")
				return nil
			case "users":
				a.show("admin")
				return nil
			case "prompt":
				a.pages.RemovePage("prompt")
				return nil
			}
		}

		// Text inputs get every key.
		switch a.app.GetFocus().(type) {
		case *tview.InputField, *tview.Form:
			return event
		}

		if currentPage == "chat" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer.InputField)
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}
		return event
	})
}

// show switches pages and triggers the load it needs.
func (a *App) show(page string) {
	if page != "login" && !a.stores.Sessions.Authenticated() {
		page = "login"
	}

	a.pages.SwitchToPage(page)
	switch page {
	case "login":
		a.loginView.ShowBrowserLogin(a.cfg.OAuthURL())
		a.app.SetFocus(a.loginView.Form())
	case "catalog":
		a.app.SetFocus(a.catalogV)
		a.async("load catalog", func(ctx context.Context) error {
			products, err := a.stores.Catalog.List(ctx)
			if err != nil {
				return err
			}
			a.queue(func() { a.catalogV.Update(products) })
			return nil
		})
	case "cart":
		a.app.SetFocus(a.cartV)
		a.async("load cart", func(ctx context.Context) error {
			return a.stores.Cart.Fetch(ctx)
		})
	case "orders":
		a.app.SetFocus(a.ordersV)
		a.reloadOrders()
	case "chats":
		a.app.SetFocus(a.dialogues)
		a.async("load chats", func(ctx context.Context) error {
			return a.stores.Chat.Refresh(ctx)
		})
	case "notifications":
		a.app.SetFocus(a.notifV)
		a.async("load notifications", func(ctx context.Context) error {
			return a.stores.Notify.Fetch(ctx)
		})
	case "profile":
		a.app.SetFocus(a.profileV)
		a.loadProfile()
	case "admin":
		a.app.SetFocus(a.adminV)
		a.loadModeration()
	case "mine":
		a.app.SetFocus(a.mineV)
		a.loadMine()
	case "users":
		a.app.SetFocus(a.usersV)
		a.loadUsers()
	}
}

func (a *App) openProduct(p catalog.Product) {
	a.current = p
	a.async("load product", func(ctx context.Context) error {
		revs, err := a.stores.Reviews.ByProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		a.queue(func() {
			a.currentRevs = revs
			a.productV.Update(p, revs)
			a.pages.SwitchToPage("product")
			a.app.SetFocus(a.productV)
		})
		return nil
	})
}

// reportReview flags one of the open product's reviews by its list number.
func (a *App) reportReview() {
	if len(a.currentRevs) == 0 {
		a.flash.Set("No reviews to report", flashDuration)
		return
	}
	a.prompt("Review # to report", func(value string) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > len(a.currentRevs) {
			a.flash.Set("No such review", flashDuration)
			return
		}
		rev := a.currentRevs[n-1]
		a.async("report review", func(ctx context.Context) error {
			if err := a.stores.Reviews.Report(ctx, rev.ID); err != nil {
				return err
			}
			a.flash.Set("Review reported", flashDuration)
			return nil
		})
	})
}

func (a *App) openDialogue(d chat.Dialogue) {
	if err := a.stores.Chat.Selection().Select(d.ID); err != nil {
		a.flashErr(err)
		return
	}
	a.thread.SetWith(d.InterlocutorName, d.ProductName)
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.thread)
	a.async("load messages", func(ctx context.Context) error {
		return a.stores.Chat.Refresh(ctx)
	})
}

// messageSeller opens a conversation about the current product: an existing
// dialogue when the server has one, a draft otherwise.
func (a *App) messageSeller(p catalog.Product) {
	a.async("open chat", func(ctx context.Context) error {
		sellerID, err := a.resolveSellerID(ctx, p)
		if err != nil {
			return err
		}
		id, found, err := a.stores.Chat.Find(ctx, p.ID, sellerID)
		if err != nil {
			return err
		}
		sel := a.stores.Chat.Selection()
		if found {
			if err := sel.Select(id); err != nil {
				return err
			}
		} else {
			if err := sel.StartDraft(chat.Draft{ProductID: p.ID, RecipientID: sellerID, Name: p.SellerName}); err != nil {
				return err
			}
		}
		a.queue(func() {
			a.thread.SetWith(p.SellerName, p.Name)
			a.thread.Update(a.stores.Chat.Messages())
			a.pages.SwitchToPage("chat")
			a.app.SetFocus(a.composer.InputField)
		})
		if found {
			return a.stores.Chat.Refresh(ctx)
		}
		return nil
	})
}

// resolveSellerID looks the seller up in the dialogue list by matching
// product; the catalog projection does not carry the seller's numeric id.
func (a *App) resolveSellerID(ctx context.Context, p catalog.Product) (int64, error) {
	if err := a.stores.Chat.Refresh(ctx); err != nil {
		return 0, err
	}
	for _, d := range a.stores.Chat.Dialogues() {
		if d.ProductID == p.ID {
			return d.InterlocutorID, nil
		}
	}
	return 0, errors.New("no existing dialogue for this product; open one from an order")
}

func (a *App) addToCart(productID int64) {
	if productID == 0 {
		return
	}
	a.async("add to cart", func(ctx context.Context) error {
		if err := a.stores.Cart.AddItem(ctx, productID); err != nil {
			return err
		}
		a.flash.Set("Added to cart", flashDuration)
		return nil
	})
}

func (a *App) bumpQuantity(delta int) {
	line, ok := a.cartV.Selected()
	if !ok {
		return
	}
	qty := line.Quantity + delta
	if qty < 1 {
		return
	}
	a.async("update quantity", func(ctx context.Context) error {
		return a.stores.Cart.UpdateQuantity(ctx, line.ProductID, qty)
	})
}

func (a *App) checkout() {
	items := a.stores.Cart.Items()
	if len(items) == 0 {
		a.flash.Set("Cart is empty", flashDuration)
		return
	}
	a.prompt("Shipping address", func(address string) {
		lines := make([]orders.CheckoutItem, 0, len(items))
		for _, l := range items {
			lines = append(lines, orders.CheckoutItem{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		a.async("checkout", func(ctx context.Context) error {
			created, err := a.stores.Orders.Checkout(ctx, address, lines)
			if err != nil {
				return err
			}
			if err := a.stores.Cart.Fetch(ctx); err != nil {
				return err
			}
			a.flash.Set("Order placed", flashDuration)
			a.logger.Info("checkout complete", zap.Int("orders", len(created)))
			a.queue(func() {
				a.ordersV.ShowSales(false)
				a.show("orders")
			})
			return nil
		})
	})
}

// advanceOrder moves a sale one step along PAID → SHIPPED → DELIVERED →
// COMPLETED. The server re-validates; a stale view just gets an error flash.
func (a *App) advanceOrder() {
	o, ok := a.ordersV.Selected()
	if !ok || !a.ordersV.Sales() {
		return
	}
	var next orders.Status
	switch o.Status {
	case orders.StatusPaid:
		next = orders.StatusShipped
	case orders.StatusShipped:
		next = orders.StatusDelivered
	case orders.StatusDelivered:
		next = orders.StatusCompleted
	default:
		a.flash.Set("No further transition", flashDuration)
		return
	}
	a.async("advance status", func(ctx context.Context) error {
		return a.stores.Orders.SetStatus(ctx, o.ID, next)
	})
}

// reviewOrder rates the first unreviewed item of a delivered or completed
// purchase. The rating range is checked by the reviews client before any
// request goes out.
func (a *App) reviewOrder() {
	o, ok := a.ordersV.Selected()
	if !ok || a.ordersV.Sales() {
		return
	}
	if o.Status != orders.StatusDelivered && o.Status != orders.StatusCompleted {
		a.flash.Set("Only delivered orders can be reviewed", flashDuration)
		return
	}
	var item *orders.Item
	for i := range o.Items {
		if !o.Items[i].IsReviewed {
			item = &o.Items[i]
			break
		}
	}
	if item == nil {
		a.flash.Set("Everything in this order is already reviewed", flashDuration)
		return
	}
	a.prompt("Rating for "+item.ProductName+" (1-5)", func(value string) {
		rating, err := strconv.Atoi(value)
		if err != nil {
			a.flashErr(reviews.ErrBadRating)
			return
		}
		a.prompt("Comment", func(comment string) {
			a.async("post review", func(ctx context.Context) error {
				if err := a.stores.Reviews.Post(ctx, item.ProductID, o.ID, rating, comment); err != nil {
					return err
				}
				a.flash.Set("Review posted", flashDuration)
				return a.stores.Orders.FetchPurchases(ctx)
			})
		})
	})
}

func (a *App) reloadOrders() {
	sales := a.ordersV.Sales()
	a.async("load orders", func(ctx context.Context) error {
		if sales {
			return a.stores.Orders.FetchSales(ctx)
		}
		return a.stores.Orders.FetchPurchases(ctx)
	})
}

func (a *App) loadProfile() {
	a.async("load profile", func(ctx context.Context) error {
		p, err := a.stores.Account.Me(ctx)
		if err != nil {
			return err
		}
		switch p.Role {
		case string(session.RoleSeller):
			stats, _ := a.stores.Account.SellerStats(ctx)
			a.queue(func() { a.profileV.Update(p, stats) })
		case string(session.RoleAdmin):
			stats, _ := a.stores.Account.AdminStats(ctx)
			a.queue(func() { a.profileV.UpdateAdmin(p, stats) })
		default:
			a.queue(func() { a.profileV.Update(p, nil) })
		}
		return nil
	})
}

// changePassword prompts for the old and new password in sequence. The
// server re-checks the old one; this just relays its verdict.
func (a *App) changePassword() {
	a.prompt("Current password", func(oldPassword string) {
		a.prompt("New password", func(newPassword string) {
			a.async("change password", func(ctx context.Context) error {
				if err := a.stores.Account.ChangePassword(ctx, oldPassword, newPassword); err != nil {
					return err
				}
				a.flash.Set("Password changed", flashDuration)
				return nil
			})
		})
	})
}

func (a *App) loadMine() {
	a.async("load my goods", func(ctx context.Context) error {
		products, err := a.stores.Catalog.Mine(ctx)
		if err != nil {
			return err
		}
		cats, err := a.stores.Catalog.Categories(ctx)
		if err != nil {
			return err
		}
		a.queue(func() {
			a.mineV.Update(products)
			a.productForm.SetCategories(cats)
		})
		return nil
	})
}

func (a *App) openProductForm(p *catalog.Product) {
	a.productForm.SetProduct(p)
	a.pages.SwitchToPage("product_form")
	a.app.SetFocus(a.productForm)
}

func (a *App) saveProductForm() {
	d, err := a.productForm.Draft()
	if err != nil {
		a.flashErr(err)
		return
	}
	id := a.productForm.ProductID()
	a.async("save product", func(ctx context.Context) error {
		if id == 0 {
			if _, err := a.stores.Catalog.Create(ctx, d); err != nil {
				return err
			}
			a.flash.Set("Product submitted for moderation", flashDuration)
		} else {
			if err := a.stores.Catalog.Update(ctx, id, d); err != nil {
				return err
			}
			a.flash.Set("Product updated", flashDuration)
		}
		a.queue(func() { a.show("mine") })
		return nil
	})
}

func (a *App) loadUsers() {
	a.async("load users", func(ctx context.Context) error {
		users, err := a.stores.Account.Users(ctx)
		if err != nil {
			return err
		}
		a.queue(func() { a.usersV.Update(users) })
		return nil
	})
}

func (a *App) setUserRole() {
	u, ok := a.usersV.Selected()
	if !ok {
		return
	}
	a.prompt("Role for "+u.Email+" (BUYER/SELLER/ADMIN)", func(value string) {
		role := session.Role(strings.ToUpper(strings.TrimSpace(value)))
		switch role {
		case session.RoleBuyer, session.RoleSeller, session.RoleAdmin:
		default:
			a.flash.Set("Unknown role", flashDuration)
			return
		}
		a.async("set role", func(ctx context.Context) error {
			if err := a.stores.Account.SetUserRole(ctx, u.ID, role); err != nil {
				return err
			}
			a.queue(a.loadUsers)
			return nil
		})
	})
}

func (a *App) loadModeration() {
	a.async("load moderation", func(ctx context.Context) error {
		products, err := a.stores.Catalog.Pending(ctx)
		if err != nil {
			return err
		}
		requests, err := a.stores.Account.PendingVerifications(ctx)
		if err != nil {
			return err
		}
		a.queue(func() { a.adminV.Update(products, requests) })
		return nil
	})
}

func (a *App) moderate(approve bool) {
	if p, ok := a.adminV.SelectedProduct(); ok {
		if approve {
			a.async("approve product", func(ctx context.Context) error {
				if err := a.stores.Catalog.Approve(ctx, p.ID); err != nil {
					return err
				}
				a.queue(a.loadModeration)
				return nil
			})
			return
		}
		a.prompt("Rejection reason", func(reason string) {
			a.async("reject product", func(ctx context.Context) error {
				if err := a.stores.Catalog.Reject(ctx, p.ID, reason); err != nil {
					return err
				}
				a.queue(a.loadModeration)
				return nil
			})
		})
		return
	}
	if r, ok := a.adminV.SelectedRequest(); ok {
		if approve {
			a.async("approve seller", func(ctx context.Context) error {
				if err := a.stores.Account.ApproveVerification(ctx, r.ID); err != nil {
					return err
				}
				a.queue(a.loadModeration)
				return nil
			})
			return
		}
		a.prompt("Rejection reason", func(reason string) {
			a.async("reject seller", func(ctx context.Context) error {
				if err := a.stores.Account.RejectVerification(ctx, r.ID, reason); err != nil {
					return err
				}
				a.queue(a.loadModeration)
				return nil
			})
		})
	}
}

// prompt shows a one-line input over the current page.
func (a *App) prompt(label string, done func(value string)) {
	a.promptIn.SetLabel(" " + label + ": ").SetText("")
	a.promptIn.SetDoneFunc(func(key tcell.Key) {
		value := a.promptIn.GetText()
		a.pages.RemovePage("prompt")
		if key == tcell.KeyEnter && value != "" {
			done(value)
		}
	})
	a.pages.AddPage("prompt", a.promptIn, true, true)
	a.app.SetFocus(a.promptIn)
}

// async runs op off the UI goroutine, flashing failures.
func (a *App) async(what string, op func(ctx context.Context) error) {
	go func() {
		if err := op(a.ctx); err != nil {
			a.logger.Warn(what+" failed", zap.Error(err))
			a.flashErr(err)
			a.queue(func() {})
		}
	}()
}

func (a *App) flashErr(err error) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		a.flash.Set(apiErr.Message, flashDuration)
		return
	}
	a.flash.Set(err.Error(), flashDuration)
}

func (a *App) queue(fn func()) {
	a.app.QueueUpdateDraw(func() {
		fn()
		a.repaintChrome()
	})
}

func (a *App) repaintChrome() {
	if ident, ok := a.stores.Sessions.Identity(); ok {
		a.statusBar.SetIdentity(ident.FullName)
	} else {
		a.statusBar.SetIdentity("")
	}
	a.statusBar.SetUnread(a.stores.Notify.UnreadCount())
	a.statusBar.SetCartCount(a.stores.Cart.TotalQuantity())
	a.statusBar.SetFlash(a.flash.Get())
}

// Run starts the TUI: pick the first page, then repaint on every bus event.
func (a *App) Run() error {
	go a.watchBus()

	if a.stores.Sessions.Authenticated() {
		a.show("catalog")
	} else {
		a.show("login")
	}

	return a.app.Run()
}

// watchBus repaints the page owning each event. Events arrive from pollers
// and stores; the shell never mutates on them, it re-reads the store.
func (a *App) watchBus() {
	events, unsub := a.bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case <-a.ctx.Done():
			return
		case ev := <-events:
			a.handleEvent(ev)
		}
	}
}

func (a *App) handleEvent(ev bus.Event) {
	switch ev.Kind {
	case bus.KindSessionExpired:
		a.flash.Set("Session expired, sign in again", flashDuration)
		a.queue(func() { a.show("login") })
	case bus.KindSessionCleared:
		a.queue(func() { a.show("login") })
	case bus.KindCartUpdated:
		a.queue(func() { a.cartV.Update(a.stores.Cart.Items(), a.stores.Cart.Total()) })
	case bus.KindNotifyUpdated:
		a.queue(func() { a.notifV.Update(a.stores.Notify.Notifications()) })
	case bus.KindDialoguesUpdated:
		a.queue(func() { a.dialogues.Update(a.stores.Chat.Dialogues()) })
	case bus.KindMessagesUpdated:
		a.queue(func() { a.thread.Update(a.stores.Chat.Messages()) })
	default:
		a.queue(func() {})
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
