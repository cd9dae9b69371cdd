package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/tview"
	"github.com/shopspring/decimal"

	"crafthub/internal/catalog"
)

// ProductForm is the create/edit form for a seller's product. The same form
// serves both: ProductID() is zero for a new product.
type ProductForm struct {
	*tview.Form
	productID   int64
	name        string
	description string
	price       string
	stock       string
	categories  []catalog.Category
	categoryIdx int
	onSave      func()
}

// NewProductForm creates the product form.
func NewProductForm() *ProductForm {
	form := tview.NewForm()
	form.SetBorder(true).SetTitle(" New product ")

	f := &ProductForm{Form: form, categoryIdx: -1}

	form.AddInputField("Name", "", 40, nil, func(s string) { f.name = s })
	form.AddInputField("Description", "", 40, nil, func(s string) { f.description = s })
	form.AddInputField("Price", "", 12, nil, func(s string) { f.price = s })
	form.AddInputField("Stock", "", 8, nil, func(s string) { f.stock = s })
	form.AddDropDown("Category", nil, -1, func(_ string, index int) { f.categoryIdx = index })
	form.AddButton("Save", func() {
		if f.onSave != nil {
			f.onSave()
		}
	})

	return f
}

// SetOnSave sets the save callback.
func (f *ProductForm) SetOnSave(fn func()) {
	f.onSave = fn
}

// SetCategories installs the dropdown options.
func (f *ProductForm) SetCategories(cats []catalog.Category) {
	f.categories = cats
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.DisplayName
	}
	dd := f.GetFormItemByLabel("Category").(*tview.DropDown)
	dd.SetOptions(names, func(_ string, index int) { f.categoryIdx = index })
}

// SetProduct prefills the form: nil starts a fresh product, non-nil edits an
// existing one. The category is matched by display name, the only category
// attribute the product projection carries.
func (f *ProductForm) SetProduct(p *catalog.Product) {
	dd := f.GetFormItemByLabel("Category").(*tview.DropDown)
	// Deselecting the dropdown does not fire its callback, so the index is
	// reset by hand.
	f.categoryIdx = -1
	dd.SetCurrentOption(-1)

	if p == nil {
		f.productID = 0
		f.SetTitle(" New product ")
		f.setFields("", "", "", "")
		return
	}

	f.productID = p.ID
	f.SetTitle(fmt.Sprintf(" Edit: %s ", sanitizeForTerminal(p.Name)))
	f.setFields(p.Name, p.Description, p.Price.String(), strconv.Itoa(p.StockQuantity))
	for i, c := range f.categories {
		if c.DisplayName == p.CategoryDisplayName {
			dd.SetCurrentOption(i)
			break
		}
	}
}

func (f *ProductForm) setFields(name, description, price, stock string) {
	f.GetFormItemByLabel("Name").(*tview.InputField).SetText(name)
	f.GetFormItemByLabel("Description").(*tview.InputField).SetText(description)
	f.GetFormItemByLabel("Price").(*tview.InputField).SetText(price)
	f.GetFormItemByLabel("Stock").(*tview.InputField).SetText(stock)
}

// ProductID returns the product being edited, zero for a new one.
func (f *ProductForm) ProductID() int64 {
	return f.productID
}

// Draft validates the fields and builds the submission payload.
func (f *ProductForm) Draft() (catalog.Draft, error) {
	if strings.TrimSpace(f.name) == "" {
		return catalog.Draft{}, fmt.Errorf("name is empty")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f.price))
	if err != nil || price.IsNegative() {
		return catalog.Draft{}, fmt.Errorf("bad price %q", f.price)
	}
	stock, err := strconv.Atoi(strings.TrimSpace(f.stock))
	if err != nil || stock < 0 {
		return catalog.Draft{}, fmt.Errorf("bad stock %q", f.stock)
	}
	if f.categoryIdx < 0 || f.categoryIdx >= len(f.categories) {
		return catalog.Draft{}, fmt.Errorf("pick a category")
	}

	return catalog.Draft{
		Name:          strings.TrimSpace(f.name),
		Description:   strings.TrimSpace(f.description),
		Price:         price,
		StockQuantity: stock,
		CategoryID:    f.categories[f.categoryIdx].ID,
	}, nil
}
