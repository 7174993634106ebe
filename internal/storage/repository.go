// Package storage is the local sqlite backend. It serves the same ports as
// the remote API so the app runs fully offline against its own database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ upstream.Backend = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// dateCond renders the filter as extra WHERE clauses on the item date.
func dateCond(filter core.DateFilter, args *[]any) string {
	var cond strings.Builder
	if filter.StartDate != "" {
		cond.WriteString(" AND substr(transaction_time, 1, 10) >= ?")
		*args = append(*args, filter.StartDate)
	}
	if filter.EndDate != "" {
		cond.WriteString(" AND substr(transaction_time, 1, 10) <= ?")
		*args = append(*args, filter.EndDate)
	}
	return cond.String()
}

// CategoryTree aggregates the items into the 3-level tree. Node ids are
// hashes of the category path so they stay stable across requests.
func (r *SQLiteRepository) CategoryTree(ctx context.Context, filter core.DateFilter) ([]core.CategoryNode, error) {
	args := []any{}
	query := `SELECT category_1, category_2, category_3, SUM(price_cny), COUNT(*)
		FROM items WHERE category_1 != ''` + dateCond(filter, &args) + `
		GROUP BY category_1, category_2, category_3`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category tree: %w", err)
	}
	defer rows.Close()

	var roots []core.CategoryNode
	index := map[string]int{}
	for rows.Next() {
		var c1, c2, c3 string
		var total float64
		var count int
		if err := rows.Scan(&c1, &c2, &c3, &total, &count); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		i, ok := index[c1]
		if !ok {
			i = len(roots)
			index[c1] = i
			roots = append(roots, core.CategoryNode{ID: pathID(c1), Name: c1})
		}
		roots[i].TotalCNY += total
		roots[i].ItemCount += count
		if c2 == "" {
			continue
		}
		child := ensureChild(&roots[i], c2, pathID(c1, c2))
		child.TotalCNY += total
		child.ItemCount += count
		if c3 == "" {
			continue
		}
		grand := ensureChild(child, c3, pathID(c1, c2, c3))
		grand.TotalCNY += total
		grand.ItemCount += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	sortTree(roots)
	return roots, nil
}

func ensureChild(parent *core.CategoryNode, name string, id int64) *core.CategoryNode {
	for i := range parent.Children {
		if parent.Children[i].Name == name {
			return &parent.Children[i]
		}
	}
	parent.Children = append(parent.Children, core.CategoryNode{ID: id, Name: name})
	return &parent.Children[len(parent.Children)-1]
}

func pathID(parts ...string) int64 {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return int64(h.Sum32())
}

func sortTree(nodes []core.CategoryNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].TotalCNY > nodes[j].TotalCNY })
	for i := range nodes {
		sortTree(nodes[i].Children)
	}
}

const itemColumns = `id, name_zh, name_ja, store_name, price_jpy, price_cny,
	is_special_offer, special_info, notes, category_1, category_2, category_3,
	category_id, transaction_time, receipt_id, receipt_name`

func scanItem(row interface{ Scan(...any) error }) (core.LineItem, error) {
	var it core.LineItem
	err := row.Scan(&it.ID, &it.NameZH, &it.NameJA, &it.StoreName, &it.PriceJPY,
		&it.PriceCNY, &it.IsSpecialOffer, &it.SpecialInfo, &it.Notes,
		&it.Category1, &it.Category2, &it.Category3, &it.CategoryID,
		&it.TransactionTime, &it.ReceiptID, &it.ReceiptName)
	return it, err
}

func (r *SQLiteRepository) queryItems(ctx context.Context, query string, args ...any) ([]core.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []core.LineItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CompareSelection fetches the filtered items and matches them against the
// selection paths in Go; the per-selection path predicates do not map onto a
// fixed SQL shape.
func (r *SQLiteRepository) CompareSelection(ctx context.Context, name string, categories []core.SelectedCategory, filter core.DateFilter) (*core.ComparisonSeries, error) {
	args := []any{}
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1` + dateCond(filter, &args) +
		` ORDER BY transaction_time`
	items, err := r.queryItems(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	byDate := map[string]*core.SeriesPoint{}
	var dates []string
	for _, it := range items {
		if !selectionMatches(categories, it) {
			continue
		}
		d := itemDate(it)
		p, ok := byDate[d]
		if !ok {
			p = &core.SeriesPoint{Date: d}
			byDate[d] = p
			dates = append(dates, d)
		}
		p.TotalCNY += it.PriceCNY
		p.Items = append(p.Items, it)
	}
	sort.Strings(dates)

	series := &core.ComparisonSeries{Name: name}
	for _, d := range dates {
		series.TimeSeries = append(series.TimeSeries, *byDate[d])
	}
	return series, nil
}

func itemDate(it core.LineItem) string {
	if len(it.TransactionTime) >= 10 {
		return it.TransactionTime[:10]
	}
	return it.TransactionTime
}

func selectionMatches(categories []core.SelectedCategory, it core.LineItem) bool {
	itemPath := []string{it.Category1, it.Category2, it.Category3}
	for _, sel := range categories {
		if len(sel.Path) == 0 || len(sel.Path) > len(itemPath) {
			continue
		}
		match := true
		for i, seg := range sel.Path {
			if itemPath[i] != seg {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]upstream.SavedGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, categories FROM comparison_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query comparison groups: %w", err)
	}
	defer rows.Close()

	var groups []upstream.SavedGroup
	for rows.Next() {
		var g upstream.SavedGroup
		var categories string
		if err := rows.Scan(&g.ID, &g.Name, &categories); err != nil {
			return nil, fmt.Errorf("scan comparison group: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &g.Categories); err != nil {
			return nil, fmt.Errorf("decode group %d categories: %w", g.ID, err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *SQLiteRepository) CreateGroup(ctx context.Context, name string, categories []core.SelectedCategory) (int64, error) {
	payload, err := json.Marshal(categories)
	if err != nil {
		return 0, fmt.Errorf("encode categories: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comparison_groups (name, categories) VALUES (?, ?)`, name, string(payload))
	if err != nil {
		return 0, fmt.Errorf("insert comparison group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read group id: %w", err)
	}
	slog.InfoContext(ctx, "Comparison group saved", "id", id, "name", name)
	return id, nil
}

func (r *SQLiteRepository) UpdateGroup(ctx context.Context, id int64, name string, categories []core.SelectedCategory) error {
	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE comparison_groups SET name = ?, categories = ?, updated_at = datetime('now') WHERE id = ?`,
		name, string(payload), id)
	if err != nil {
		return fmt.Errorf("update comparison group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %d: %w", id, core.ErrGroupNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGroup(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comparison_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comparison group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %d: %w", id, core.ErrGroupNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Item(ctx context.Context, id int64) (core.LineItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return core.LineItem{}, fmt.Errorf("item %d not found", id)
	}
	if err != nil {
		return core.LineItem{}, fmt.Errorf("query item %d: %w", id, err)
	}
	return it, nil
}

func (r *SQLiteRepository) UpdateItem(ctx context.Context, id int64, update upstream.ItemUpdate) (core.LineItem, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE items SET name_zh = ?, name_ja = ?, price_jpy = ?, price_cny = ?,
			is_special_offer = ?, special_info = ?, notes = ?,
			category_id = CASE WHEN ? != 0 THEN ? ELSE category_id END
		WHERE id = ?`,
		update.NameZH, update.NameJA, update.PriceJPY, update.PriceCNY,
		update.IsSpecialOffer, update.SpecialInfo, update.Notes,
		update.CategoryID, update.CategoryID, id)
	if err != nil {
		return core.LineItem{}, fmt.Errorf("update item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.LineItem{}, fmt.Errorf("item %d not found", id)
	}
	return r.Item(ctx, id)
}

// InsertItem seeds local data; the presentation pages never call it, but the
// import tooling and tests do.
func (r *SQLiteRepository) InsertItem(ctx context.Context, it core.LineItem) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO items (name_zh, name_ja, store_name, price_jpy, price_cny,
			is_special_offer, special_info, notes, category_1, category_2,
			category_3, category_id, transaction_time, receipt_id, receipt_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.NameZH, it.NameJA, it.StoreName, it.PriceJPY, it.PriceCNY,
		it.IsSpecialOffer, it.SpecialInfo, it.Notes, it.Category1, it.Category2,
		it.Category3, it.CategoryID, it.TransactionTime, it.ReceiptID, it.ReceiptName)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) Dashboard(ctx context.Context, filter core.DateFilter) (core.DashboardMetrics, error) {
	args := []any{}
	query := `SELECT COALESCE(SUM(price_jpy), 0), COALESCE(SUM(price_cny), 0),
			COUNT(DISTINCT receipt_id), COUNT(*),
			COUNT(DISTINCT substr(transaction_time, 1, 10)),
			COALESCE(SUM(is_special_offer), 0)
		FROM items WHERE 1=1` + dateCond(filter, &args)

	var m core.DashboardMetrics
	var special int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&m.TotalSpending.JPY, &m.TotalSpending.CNY, &m.ReceiptCount,
		&m.ItemCount, &m.TimeSpanDays, &special)
	if err != nil {
		return core.DashboardMetrics{}, fmt.Errorf("query dashboard: %w", err)
	}
	if m.TimeSpanDays > 0 {
		m.DailyAverage.JPY = m.TotalSpending.JPY / float64(m.TimeSpanDays)
		m.DailyAverage.CNY = m.TotalSpending.CNY / float64(m.TimeSpanDays)
	}
	if m.ItemCount > 0 {
		m.DiscountRatio = float64(special) / float64(m.ItemCount)
	}
	return m, nil
}

func (r *SQLiteRepository) Trend(ctx context.Context, filter core.DateFilter) ([]core.TrendPoint, error) {
	args := []any{}
	query := `SELECT substr(transaction_time, 1, 10) AS day,
			COALESCE(SUM(price_jpy), 0), COALESCE(SUM(price_cny), 0)
		FROM items WHERE 1=1` + dateCond(filter, &args) + `
		GROUP BY day ORDER BY day`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}
	defer rows.Close()

	var points []core.TrendPoint
	for rows.Next() {
		var p core.TrendPoint
		if err := rows.Scan(&p.Date, &p.Spending.JPY, &p.Spending.CNY); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func categoryColumn(level int) (string, error) {
	switch level {
	case 1:
		return "category_1", nil
	case 2:
		return "category_2", nil
	case 3:
		return "category_3", nil
	}
	return "", fmt.Errorf("invalid category level %d", level)
}

func (r *SQLiteRepository) CategoryBreakdown(ctx context.Context, filter core.DateFilter, level int, parent string) (core.CategoryBreakdown, error) {
	col, err := categoryColumn(level)
	if err != nil {
		return core.CategoryBreakdown{}, err
	}

	args := []any{}
	query := `SELECT ` + col + `, COALESCE(SUM(price_jpy), 0), COALESCE(SUM(price_cny), 0), COUNT(*)
		FROM items WHERE ` + col + ` != ''` + dateCond(filter, &args)
	if level > 1 {
		parentCol, _ := categoryColumn(level - 1)
		query += ` AND ` + parentCol + ` = ?`
		args = append(args, parent)
	}
	query += ` GROUP BY ` + col + ` ORDER BY SUM(price_jpy) DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return core.CategoryBreakdown{}, fmt.Errorf("query category breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := core.CategoryBreakdown{CategoryLevel: level, Parent: parent}
	var grand float64
	for rows.Next() {
		var slice core.CategorySlice
		if err := rows.Scan(&slice.Category, &slice.Spending.JPY, &slice.Spending.CNY, &slice.ItemCount); err != nil {
			return core.CategoryBreakdown{}, fmt.Errorf("scan breakdown slice: %w", err)
		}
		grand += slice.Spending.JPY
		breakdown.Categories = append(breakdown.Categories, slice)
	}
	if err := rows.Err(); err != nil {
		return core.CategoryBreakdown{}, err
	}
	for i := range breakdown.Categories {
		if grand > 0 {
			breakdown.Categories[i].Percentage = breakdown.Categories[i].Spending.JPY / grand * 100
		}
	}
	return breakdown, nil
}

func (r *SQLiteRepository) DailyItems(ctx context.Context, date string) ([]core.LineItem, error) {
	return r.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE substr(transaction_time, 1, 10) = ? ORDER BY transaction_time`,
		date)
}

func (r *SQLiteRepository) CategoryItems(ctx context.Context, category string, level int, filter core.DateFilter) ([]core.LineItem, error) {
	col, err := categoryColumn(level)
	if err != nil {
		return nil, err
	}
	args := []any{category}
	query := `SELECT ` + itemColumns + ` FROM items WHERE ` + col + ` = ?` +
		dateCond(filter, &args) + ` ORDER BY transaction_time`
	return r.queryItems(ctx, query, args...)
}
