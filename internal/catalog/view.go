package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
)

// Sort keys accepted by the view pipeline. Anything else preserves feed order.
const (
	SortDefault   = "default"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
	SortStockLow  = "stock-low"
)

// Price bucket selections. AllBuckets passes every product.
const (
	AllBuckets     = "All"
	BucketUnder100 = "under-100"
	Bucket100To150 = "100-150"
	Bucket150To200 = "150-200"
	BucketOver200  = "200+"
)

// AllCategories is the sentinel heading the derived category list.
const AllCategories = "All"

var (
	price100 = decimal.NewFromInt(100)
	price150 = decimal.NewFromInt(150)
	price200 = decimal.NewFromInt(200)
)

// Filters is the ephemeral view state for one catalog page request.
type Filters struct {
	Search      string
	Category    string
	PriceBucket string
	Sort        string
	Page        int
}

// Normalize resets the page to 1 whenever any non-page field differs from
// the previous filter state, and fills the pass-all defaults.
func (f Filters) Normalize(prev Filters) Filters {
	if f.Category == "" {
		f.Category = AllCategories
	}
	if f.PriceBucket == "" {
		f.PriceBucket = AllBuckets
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Search != prev.Search || f.Category != prev.Category ||
		f.PriceBucket != prev.PriceBucket || f.Sort != prev.Sort {
		f.Page = 1
	}
	return f
}

// Page is the visible slice of the filtered catalog.
type Page struct {
	Items      []ProductRecord `json:"items"`
	Number     int             `json:"page"`
	PageCount  int             `json:"page_count"`
	TotalItems int             `json:"total_items"`
	Numbers    []PageItem      `json:"numbers"`
}

// PageItem is one entry of the pagination control: a page number or an
// ellipsis marker.
type PageItem struct {
	Number   int  `json:"number,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// View applies the filter/sort/paginate pipeline over catalog snapshots.
type View struct {
	pageSize int
}

// NewView builds a view engine with the given fixed page size.
func NewView(pageSize int) (*View, error) {
	if pageSize <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page size must be positive")
	}
	return &View{pageSize: pageSize}, nil
}

// Apply runs the pipeline in fixed order: search, category, price bucket,
// sort, paginate. A page outside [1, pageCount] is rejected.
func (v *View) Apply(snapshot []ProductRecord, filters Filters) (Page, error) {
	filtered := filterProducts(snapshot, filters)
	sortProducts(filtered, filters.Sort)

	total := len(filtered)
	pageCount := (total + v.pageSize - 1) / v.pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	page := filters.Page
	if page == 0 {
		page = 1
	}
	if page < 1 || page > pageCount {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "page out of range")
	}

	start := (page - 1) * v.pageSize
	end := start + v.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:      filtered[start:end],
		Number:     page,
		PageCount:  pageCount,
		TotalItems: total,
		Numbers:    PageNumbers(page, pageCount),
	}, nil
}

func filterProducts(snapshot []ProductRecord, filters Filters) []ProductRecord {
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	out := make([]ProductRecord, 0, len(snapshot))
	for _, product := range snapshot {
		if search != "" && !strings.Contains(strings.ToLower(product.Name), search) {
			continue
		}
		if filters.Category != "" && filters.Category != AllCategories && product.Category != filters.Category {
			continue
		}
		if !priceBucketMatch(product.Price, filters.PriceBucket) {
			continue
		}
		out = append(out, product)
	}
	return out
}

// Bucket bounds: under-100 is strict at its ceiling, 100-150 is inclusive on
// both ends, 150-200 is exclusive-inclusive, 200+ is strict at its floor.
func priceBucketMatch(price decimal.Decimal, bucket string) bool {
	switch bucket {
	case "", AllBuckets:
		return true
	case BucketUnder100:
		return price.LessThan(price100)
	case Bucket100To150:
		return price.GreaterThanOrEqual(price100) && price.LessThanOrEqual(price150)
	case Bucket150To200:
		return price.GreaterThan(price150) && price.LessThanOrEqual(price200)
	case BucketOver200:
		return price.GreaterThan(price200)
	default:
		return true
	}
}

func sortProducts(products []ProductRecord, key string) {
	switch key {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortNameAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Name < products[j].Name
		})
	case SortNameDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Name > products[j].Name
		})
	case SortStockLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Stock < products[j].Stock
		})
	}
}

// Categories derives the selectable category list from the live snapshot:
// the "All" sentinel followed by distinct categories in feed order.
func Categories(snapshot []ProductRecord) []string {
	categories := []string{AllCategories}
	seen := map[string]struct{}{}
	for _, product := range snapshot {
		if product.Category == "" {
			continue
		}
		if _, ok := seen[product.Category]; ok {
			continue
		}
		seen[product.Category] = struct{}{}
		categories = append(categories, product.Category)
	}
	return categories
}

// PageNumbers renders the pagination control: every page when there are at
// most seven, otherwise a window keeping the current page centered with the
// first and last page always present.
func PageNumbers(current, total int) []PageItem {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	if total <= 7 {
		items := make([]PageItem, 0, total)
		for n := 1; n <= total; n++ {
			items = append(items, PageItem{Number: n})
		}
		return items
	}

	switch {
	case current <= 3:
		items := make([]PageItem, 0, 7)
		for n := 1; n <= 5; n++ {
			items = append(items, PageItem{Number: n})
		}
		return append(items, PageItem{Ellipsis: true}, PageItem{Number: total})
	case current >= total-2:
		items := []PageItem{{Number: 1}, {Ellipsis: true}}
		for n := total - 4; n <= total; n++ {
			items = append(items, PageItem{Number: n})
		}
		return items
	default:
		return []PageItem{
			{Number: 1},
			{Ellipsis: true},
			{Number: current - 1},
			{Number: current},
			{Number: current + 1},
			{Ellipsis: true},
			{Number: total},
		}
	}
}
