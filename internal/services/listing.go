package services

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/ashmitsharp/mydaily-api/internal/models"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type ViewMode string

const (
	ViewCard ViewMode = "card"
	ViewList ViewMode = "list"
)

// FilterAll disables a filter
const FilterAll = "all"

const DefaultPageSize = 10

// PageSizes are the page sizes a client may choose from
var PageSizes = []int{5, 10, 20, 50}

func ValidPageSize(size int) bool {
	return slices.Contains(PageSizes, size)
}

// SortKey compares two items in ascending order
type SortKey[T any] struct {
	Compare      func(a, b T) int
	DefaultOrder SortOrder
}

// ListSpec describes how one collection is searched, filtered and sorted
type ListSpec[T any] struct {
	SearchFields []func(T) string
	Filters      map[string]func(T) string
	Sorts        map[string]SortKey[T]
	DefaultSort  string
}

type ListQuery struct {
	Search  string
	Filters map[string]string
	Sort    string
	Order   SortOrder
}

// Apply returns the items matching q in the requested order. The input slice
// is never modified.
func (s ListSpec[T]) Apply(items []T, q ListQuery) []T {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]T, 0, len(items))
	for _, item := range items {
		if needle != "" && !s.matchesSearch(item, needle) {
			continue
		}
		if !s.matchesFilters(item, q.Filters) {
			continue
		}
		out = append(out, item)
	}

	key, ok := s.Sorts[q.Sort]
	if !ok {
		key, ok = s.Sorts[s.DefaultSort]
	}
	if !ok {
		return out
	}
	order := q.Order
	if order != SortAsc && order != SortDesc {
		order = key.DefaultOrder
	}
	slices.SortStableFunc(out, func(a, b T) int {
		if order == SortDesc {
			return key.Compare(b, a)
		}
		return key.Compare(a, b)
	})
	return out
}

func (s ListSpec[T]) matchesSearch(item T, needle string) bool {
	for _, field := range s.SearchFields {
		if strings.Contains(strings.ToLower(field(item)), needle) {
			return true
		}
	}
	return false
}

func (s ListSpec[T]) matchesFilters(item T, filters map[string]string) bool {
	for name, want := range filters {
		if want == "" || want == FilterAll {
			continue
		}
		get, ok := s.Filters[name]
		if !ok {
			continue
		}
		if get(item) != want {
			return false
		}
	}
	return true
}

// Page is one page of a listed collection
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// Paginate slices items into the requested page. A page past the end is
// clamped to the last page and an empty collection reports page 1.
func Paginate[T any](items []T, page, size int) Page[T] {
	if !ValidPageSize(size) {
		size = DefaultPageSize
	}
	total := len(items)
	pages := max(1, (total+size-1)/size)
	page = min(max(page, 1), pages)

	start := (page - 1) * size
	end := min(start+size, total)
	return Page[T]{
		Items:    items[start:end],
		Page:     page,
		PageSize: size,
		Total:    total,
		Pages:    pages,
	}
}

// ListState is the remembered list configuration of one collection view.
// Changing what is shown (search, filters, view or page size) returns to the
// first page; changing the sort does not.
type ListState struct {
	Search   string            `json:"search"`
	Filters  map[string]string `json:"filters"`
	Sort     string            `json:"sort"`
	Order    SortOrder         `json:"order"`
	View     ViewMode          `json:"view"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func NewListState() *ListState {
	return &ListState{
		Filters:  map[string]string{},
		View:     ViewCard,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// SetSearch and the other page-resetting setters report whether the page
// went back to 1.
func (s *ListState) SetSearch(search string) bool {
	if s.Search == search {
		return false
	}
	s.Search = search
	s.Page = 1
	return true
}

func (s *ListState) SetFilter(name, value string) bool {
	if value == "" {
		value = FilterAll
	}
	cur, ok := s.Filters[name]
	if !ok {
		cur = FilterAll
	}
	if cur == value {
		return false
	}
	if s.Filters == nil {
		s.Filters = map[string]string{}
	}
	s.Filters[name] = value
	s.Page = 1
	return true
}

func (s *ListState) SetSort(sort string, order SortOrder) {
	s.Sort = sort
	s.Order = order
}

func (s *ListState) SetView(view ViewMode) bool {
	if view != ViewCard && view != ViewList || s.View == view {
		return false
	}
	s.View = view
	s.Page = 1
	return true
}

func (s *ListState) SetPageSize(size int) bool {
	if !ValidPageSize(size) || s.PageSize == size {
		return false
	}
	s.PageSize = size
	s.Page = 1
	return true
}

func (s *ListState) SetPage(page int) {
	s.Page = max(page, 1)
}

func (s *ListState) Query() ListQuery {
	return ListQuery{Search: s.Search, Filters: s.Filters, Sort: s.Sort, Order: s.Order}
}

// ListResult is what a list endpoint returns
type ListResult[T any] struct {
	Page[T]
	View ViewMode `json:"view"`
}

// Run applies the state to items. The list view is not paginated.
func Run[T any](spec ListSpec[T], items []T, state *ListState) ListResult[T] {
	filtered := spec.Apply(items, state.Query())
	if state.View == ViewList {
		return ListResult[T]{
			Page: Page[T]{Items: filtered, Page: 1, PageSize: len(filtered), Total: len(filtered), Pages: 1},
			View: ViewList,
		}
	}
	page := Paginate(filtered, state.Page, state.PageSize)
	state.Page = page.Page
	return ListResult[T]{Page: page, View: ViewCard}
}

// TransactionRow is a transaction joined with its account and category
type TransactionRow struct {
	models.Transaction
	AccountName   string `json:"account_name"`
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
}

type TaskRow struct {
	models.Task
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
}

type NoteRow struct {
	models.Note
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
}

// CategoryLookup resolves category references, falling back to "Other" for
// references to categories that no longer exist.
type CategoryLookup map[string]models.Category

func NewCategoryLookup(categories []models.Category) CategoryLookup {
	lookup := make(CategoryLookup, len(categories))
	for _, c := range categories {
		lookup[c.ID.String()] = c
	}
	return lookup
}

func (l CategoryLookup) Resolve(id string) (name, color string) {
	if c, ok := l[id]; ok {
		return c.Name, c.Color
	}
	return models.FallbackCategoryName, models.FallbackCategoryColor
}

func JoinTransactions(txns []models.Transaction, accounts []models.Account, categories []models.Category) []TransactionRow {
	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID.String()] = a.Name
	}
	lookup := NewCategoryLookup(categories)

	rows := make([]TransactionRow, 0, len(txns))
	for _, t := range txns {
		name, color := lookup.Resolve(t.CategoryID.String())
		rows = append(rows, TransactionRow{
			Transaction:   t,
			AccountName:   accountNames[t.AccountID.String()],
			CategoryName:  name,
			CategoryColor: color,
		})
	}
	return rows
}

func JoinTasks(tasks []models.Task, categories []models.Category) []TaskRow {
	lookup := NewCategoryLookup(categories)
	rows := make([]TaskRow, 0, len(tasks))
	for _, t := range tasks {
		name, color := lookup.Resolve(t.CategoryID.String())
		rows = append(rows, TaskRow{Task: t, CategoryName: name, CategoryColor: color})
	}
	return rows
}

func JoinNotes(notes []models.Note, categories []models.Category) []NoteRow {
	lookup := NewCategoryLookup(categories)
	rows := make([]NoteRow, 0, len(notes))
	for _, n := range notes {
		name, color := lookup.Resolve(n.CategoryID.String())
		rows = append(rows, NoteRow{Note: n, CategoryName: name, CategoryColor: color})
	}
	return rows
}

var TransactionList = ListSpec[TransactionRow]{
	SearchFields: []func(TransactionRow) string{
		func(r TransactionRow) string { return r.Description },
		func(r TransactionRow) string { return r.AccountName },
		func(r TransactionRow) string { return r.CategoryName },
		func(r TransactionRow) string { return strconv.FormatInt(r.Amount, 10) },
	},
	Filters: map[string]func(TransactionRow) string{
		"type":        func(r TransactionRow) string { return string(r.Type) },
		"account_id":  func(r TransactionRow) string { return r.AccountID.String() },
		"category_id": func(r TransactionRow) string { return r.CategoryID.String() },
	},
	Sorts: map[string]SortKey[TransactionRow]{
		"date": {
			Compare:      func(a, b TransactionRow) int { return a.Date.Compare(b.Date) },
			DefaultOrder: SortDesc,
		},
		"amount": {
			Compare:      func(a, b TransactionRow) int { return cmp.Compare(a.Amount, b.Amount) },
			DefaultOrder: SortDesc,
		},
	},
	DefaultSort: "date",
}

var TaskList = ListSpec[TaskRow]{
	SearchFields: []func(TaskRow) string{
		func(r TaskRow) string { return r.Title },
		func(r TaskRow) string { return r.Description },
		func(r TaskRow) string { return r.CategoryName },
	},
	Filters: map[string]func(TaskRow) string{
		"status":      func(r TaskRow) string { return string(r.Status) },
		"category_id": func(r TaskRow) string { return r.CategoryID.String() },
		"completed":   func(r TaskRow) string { return strconv.FormatBool(r.Completed) },
	},
	Sorts: map[string]SortKey[TaskRow]{
		"deadline": {
			Compare:      func(a, b TaskRow) int { return a.Deadline.Compare(b.Deadline) },
			DefaultOrder: SortAsc,
		},
		"status": {
			Compare:      func(a, b TaskRow) int { return cmp.Compare(a.Status.Rank(), b.Status.Rank()) },
			DefaultOrder: SortDesc,
		},
		"title": {
			Compare:      func(a, b TaskRow) int { return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) },
			DefaultOrder: SortAsc,
		},
	},
	DefaultSort: "deadline",
}

var NoteList = ListSpec[NoteRow]{
	SearchFields: []func(NoteRow) string{
		func(r NoteRow) string { return r.Title },
		func(r NoteRow) string { return r.Content },
	},
	Filters: map[string]func(NoteRow) string{
		"category_id": func(r NoteRow) string { return r.CategoryID.String() },
		"pinned":      func(r NoteRow) string { return strconv.FormatBool(r.Pinned) },
	},
	Sorts: map[string]SortKey[NoteRow]{
		"pinned": {
			Compare: func(a, b NoteRow) int {
				if a.Pinned != b.Pinned {
					if a.Pinned {
						return -1
					}
					return 1
				}
				return b.Timestamp.Compare(a.Timestamp)
			},
			DefaultOrder: SortAsc,
		},
		"timestamp": {
			Compare:      func(a, b NoteRow) int { return a.Timestamp.Compare(b.Timestamp) },
			DefaultOrder: SortDesc,
		},
		"title": {
			Compare:      func(a, b NoteRow) int { return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) },
			DefaultOrder: SortAsc,
		},
	},
	DefaultSort: "pinned",
}
