package usecase

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/text"
)

const (
	defaultTableName = "טבלה"
	unnamedTable     = "ללא שם"
	emptyCell        = "—"

	directAnswerTables = 5
	directAnswerRows   = 5
)

var (
	tableQuestionWords = []string{"טבלה", "table"}
	preferredTableName = []string{"דוגמא", "example"}

	maxQuestionPattern = regexp.MustCompile(`(?i)(הכי גבוה|גבוה ביותר|max|maximum|highest)`)
	scoreColumnPattern = regexp.MustCompile(`(?i)ציון|score|ניקוד`)
	nameColumnPattern  = regexp.MustCompile(`(?i)שם|name`)
)

// searchTerms splits a question into lowercase terms longer than one rune
func searchTerms(term string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(term)) {
		if len([]rune(t)) > 1 {
			terms = append(terms, t)
		}
	}
	return terms
}

// tableHits counts the terms found in the name, columns or cells of t
func tableHits(t *model.Table, terms []string) int {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte(' ')
	b.WriteString(strings.Join(t.Columns, " "))
	for _, row := range t.Rows {
		for _, c := range row {
			b.WriteByte(' ')
			b.WriteString(c.String())
		}
	}
	haystack := strings.ToLower(b.String())

	hits := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			hits++
		}
	}
	return hits
}

// selectTables picks the tables relevant to term from tables ordered newest first. Tables that
// match more terms rank higher, ties keep recency. When nothing matches the newest fallback
// tables are used, so some table is returned whenever any exists.
func selectTables(tables []*model.Table, term string, matching, fallback int) []*model.Table {
	terms := searchTerms(term)
	if len(terms) == 0 {
		return tables[:min(len(tables), matching)]
	}

	type ranked struct {
		table *model.Table
		hits  int
	}
	var matched []ranked
	for _, t := range tables {
		if hits := tableHits(t, terms); hits > 0 {
			matched = append(matched, ranked{table: t, hits: hits})
		}
	}
	if len(matched) == 0 {
		return tables[:min(len(tables), fallback)]
	}

	slices.SortStableFunc(matched, func(a, b ranked) int {
		return b.hits - a.hits
	})

	selected := make([]*model.Table, 0, min(len(matched), matching))
	for _, m := range matched[:min(len(matched), matching)] {
		selected = append(selected, m.table)
	}
	return selected
}

func safeColumns(script *text.Script, columns []string) []string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		if cols[i] = script.Restrict(c); cols[i] == "" {
			cols[i] = "עמודה " + strconv.Itoa(i+1)
		}
	}
	return cols
}

func safeCell(script *text.Script, c model.CellValue) string {
	if c.IsEmpty() {
		return emptyCell
	}
	return script.Restrict(c.String())
}

func renderRows(script *text.Script, cols []string, rows [][]model.CellValue, limit int) []string {
	lines := make([]string, 0, min(len(rows), limit))
	for i, row := range rows[:min(len(rows), limit)] {
		cells := make([]string, len(cols))
		for j, col := range cols {
			v := emptyCell
			if j < len(row) {
				v = safeCell(script, row[j])
			}
			cells[j] = col + ": " + v
		}
		lines = append(lines, strconv.Itoa(i+1)+". "+strings.Join(cells, " | "))
	}
	return lines
}

// summarizeTable renders a bounded single-line description of t for the prompt
func summarizeTable(script *text.Script, t *model.Table, maxRows int) string {
	cols := safeColumns(script, t.Columns)
	name := script.Restrict(t.Name)
	if name == "" {
		name = defaultTableName
	}
	colList := strings.Join(cols, ", ")
	if colList == "" {
		colList = emptyCell
	}
	rows := strings.Join(renderRows(script, cols, t.Rows, maxRows), "\n")
	if rows == "" {
		rows = emptyCell
	}

	return text.NormalizeWhitespace(fmt.Sprintf("שם: %s\nעמודות (%d): %s\nדגימת שורות (%d סה״כ):\n%s",
		name, len(cols), colList, len(t.Rows), rows))
}

// TableAnswerer answers table questions straight from stored data without a model
type TableAnswerer struct {
	content interfaces.ContentRepository
	script  *text.Script
}

func NewTableAnswerer(content interfaces.ContentRepository, script *text.Script) *TableAnswerer {
	return &TableAnswerer{content: content, script: script}
}

// IsTableQuestion reports whether the question refers to a data table
func IsTableQuestion(question string) bool {
	q := strings.ToLower(question)
	return slices.ContainsFunc(tableQuestionWords, func(w string) bool {
		return strings.Contains(q, w)
	})
}

// Answer returns the direct answer and true, or false when the question is not about a table
// or no table exists.
func (a *TableAnswerer) Answer(ctx context.Context, question string) (string, bool, error) {
	if !IsTableQuestion(question) {
		return "", false, nil
	}

	tables, err := a.content.ListRecentTables(ctx, directAnswerTables)
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to list tables for direct answer")
	}
	if len(tables) == 0 {
		return "", false, nil
	}

	t := pickTable(tables, question)
	if maxQuestionPattern.MatchString(question) {
		if answer, ok := maxScoreAnswer(t); ok {
			return answer, true, nil
		}
	}
	return a.describe(t), true, nil
}

func pickTable(tables []*model.Table, question string) *model.Table {
	for _, want := range preferredTableName {
		for _, t := range tables {
			if strings.Contains(strings.ToLower(t.Name), want) {
				return t
			}
		}
	}
	q := strings.ToLower(question)
	for _, t := range tables {
		if strings.Contains(strings.ToLower(t.Name), q) {
			return t
		}
	}
	return tables[0]
}

func maxScoreAnswer(t *model.Table) (string, bool) {
	scoreIdx := slices.IndexFunc(t.Columns, scoreColumnPattern.MatchString)
	if scoreIdx < 0 {
		return "", false
	}

	best := -1
	var bestVal float64
	for i, row := range t.Rows {
		v, ok := row[scoreIdx].Number()
		if !ok {
			continue
		}
		if best < 0 || v > bestVal {
			best, bestVal = i, v
		}
	}
	if best < 0 {
		return "", false
	}

	answer := "הציון הגבוה ביותר הוא " + strconv.FormatFloat(bestVal, 'f', -1, 64)
	if nameIdx := slices.IndexFunc(t.Columns, nameColumnPattern.MatchString); nameIdx >= 0 {
		if name := t.Rows[best][nameIdx].String(); name != "" {
			answer += " של " + name
		}
	}
	return answer + ". (עמודה: " + t.Columns[scoreIdx] + ")", true
}

func (a *TableAnswerer) describe(t *model.Table) string {
	cols := safeColumns(a.script, t.Columns)
	name := a.script.Restrict(t.Name)
	if name == "" {
		name = unnamedTable
	}
	colList := strings.Join(cols, ", ")
	if colList == "" {
		colList = emptyCell
	}

	header := fmt.Sprintf("בטבלה \"%s\" יש %d שורות ו-%d עמודות: %s.", name, len(t.Rows), len(cols), colList)
	return header + "\n" + strings.Join(renderRows(a.script, cols, t.Rows, directAnswerRows), "\n")
}
