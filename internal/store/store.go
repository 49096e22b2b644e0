// Package store 提供持久化表格的读写：主格式 xlsx（sheet 固定为 all），
// 读失败/缺失时回退到同名 .csv；写失败时也回退到 .csv。
//
// 表格被建模为“有序行 + 命名列”，行顺序在 load/save 之间保持不变。
package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetName 是 xlsx 内唯一的工作表名。
const SheetName = "all"

// WatchedColumns 是列表页爬取产出的基础列。
var WatchedColumns = []string{"id", "title", "link", "date", "rating", "poster_url"}

// EnrichedColumns 在基础列之上追加富化列（列顺序固定）。
var EnrichedColumns = []string{
	"id", "title", "link", "date", "rating", "poster_url",
	"genres", "language", "runtime", "year", "imdb_id", "imdb_tags", "tags",
}

// Table 是有序行 + 命名列的内存表。Rows 中每行按 Columns 取值，缺列视为空串。
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// IntegrityError 表示持久化表缺少必需列（富化运行的前置校验失败）。
type IntegrityError struct {
	Path    string
	Missing []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("数据文件 %q 缺少必需列：%s", e.Path, strings.Join(e.Missing, ", "))
}

// RequireColumns 校验必需列是否齐全；缺失时返回 *IntegrityError。
func (t Table) RequireColumns(path string, cols ...string) error {
	have := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		have[c] = struct{}{}
	}
	var missing []string
	for _, c := range cols {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &IntegrityError{Path: path, Missing: missing}
	}
	return nil
}

// Get 取一行中某列的值（缺列返回空串）。
func Get(row map[string]string, col string) string { return strings.TrimSpace(row[col]) }

// Load 读取 path 处的 xlsx 表；失败时按序回退：
// 1) xlsx 缺失或损坏 -> 尝试同名 .csv
// 2) 两者都不存在 -> 返回只有期望列的空表（不算错误）
func Load(path string, expected []string) (Table, error) {
	t, err := loadXLSX(path)
	if err == nil {
		return t, nil
	}

	csvPath := siblingCSVPath(path)
	if t, cerr := loadCSV(csvPath); cerr == nil {
		return t, nil
	}

	if os.IsNotExist(err) {
		return Table{Columns: append([]string(nil), expected...)}, nil
	}
	return Table{}, fmt.Errorf("读取 %s 失败：%w", path, err)
}

// Save 写出表格：主格式 xlsx，写失败时回退写 .csv（两者都失败才报错）。
// 写入是原子的（临时文件 + rename）。
func Save(path string, t Table) error {
	xerr := saveXLSX(path, t)
	if xerr == nil {
		return nil
	}
	if cerr := saveCSV(siblingCSVPath(path), t); cerr != nil {
		return fmt.Errorf("写 xlsx 失败（%v），csv 回退也失败：%w", xerr, cerr)
	}
	return nil
}

// SaveMapping 把 tag -> 影片 ID 列表 的派生索引写成 JSON 文件（可随时重建）。
func SaveMapping(path string, mapping map[string][]string) error {
	b, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return atomicWrite(path, b)
}

func loadXLSX(path string) (Table, error) {
	if _, err := os.Stat(path); err != nil {
		return Table{}, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return Table{}, err
	}
	return tableFromRows(rows), nil
}

func loadCSV(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	r := csv.NewReader(bytes.NewReader(b))
	// 行宽允许不一致：旧文件可能少了后来新增的列。
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return Table{}, err
	}
	return tableFromRows(rows), nil
}

func tableFromRows(rows [][]string) Table {
	if len(rows) == 0 {
		return Table{}
	}
	cols := make([]string, 0, len(rows[0]))
	for _, c := range rows[0] {
		cols = append(cols, strings.TrimSpace(c))
	}

	t := Table{Columns: cols, Rows: make([]map[string]string, 0, len(rows)-1)}
	for _, raw := range rows[1:] {
		row := make(map[string]string, len(cols))
		empty := true
		for i, col := range cols {
			v := ""
			if i < len(raw) {
				v = strings.TrimSpace(raw[i])
			}
			if v != "" {
				empty = false
			}
			row[col] = v
		}
		if empty {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func saveXLSX(path string, t Table) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			vals[j] = row[col]
		}
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	return atomicWrite(path, buf.Bytes())
}

func saveCSV(path string, t Table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return atomicWrite(path, buf.Bytes())
}

func siblingCSVPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
}
