package resource

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// DefaultPageLimit _page指定時の1ページあたりの件数
const DefaultPageLimit = 10

// Operator フィルタ演算子
type Operator string

const (
	OperatorEq   Operator = "eq"
	OperatorNe   Operator = "ne"
	OperatorGte  Operator = "gte"
	OperatorLte  Operator = "lte"
	OperatorLike Operator = "like"
)

var operatorSuffixes = []struct {
	suffix string
	op     Operator
}{
	{"_ne", OperatorNe},
	{"_gte", OperatorGte},
	{"_lte", OperatorLte},
	{"_like", OperatorLike},
}

// Filter フィールドに対する条件（同一フィールドの複数値はOR）
type Filter struct {
	Field  string
	Op     Operator
	Values []string

	patterns []*regexp2.Regexp
}

// SortKey ソートキー
type SortKey struct {
	Field string
	Desc  bool
}

// Query 一覧取得の条件
type Query struct {
	Filters []Filter
	Search  string
	Sort    []SortKey
	Start   *int
	End     *int
	Limit   *int
	Page    *int
}

// Result 一覧取得の結果
type Result struct {
	Records []Record
	// Total フィルタ後・ページング前の件数
	Total int
	// Sliced _start/_end/_limit/_page のいずれかが適用された
	Sliced   bool
	Page     int
	Limit    int
	LastPage int
}

// NewFilter フィルタを作成（likeの場合は正規表現をコンパイル）
func NewFilter(field string, op Operator, values ...string) (Filter, error) {
	f := Filter{Field: field, Op: op, Values: values}
	if op != OperatorLike {
		return f, nil
	}
	for _, v := range values {
		re, err := regexp2.Compile(v, regexp2.IgnoreCase|regexp2.ECMAScript)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s_like: %v", ErrInvalidQuery, field, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// ParseQuery クエリ文字列から条件を組み立てる
func ParseQuery(values url.Values) (*Query, error) {
	q := &Query{}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sortFields, orders []string
	for _, key := range keys {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}

		switch key {
		case "q":
			q.Search = vals[0]
			continue
		case "_sort":
			sortFields = splitList(vals[0])
			continue
		case "_order":
			orders = splitList(vals[0])
			continue
		case "_start":
			n, err := parseNonNegative(key, vals[0])
			if err != nil {
				return nil, err
			}
			q.Start = &n
			continue
		case "_end":
			n, err := parseNonNegative(key, vals[0])
			if err != nil {
				return nil, err
			}
			q.End = &n
			continue
		case "_limit":
			n, err := parseNonNegative(key, vals[0])
			if err != nil {
				return nil, err
			}
			q.Limit = &n
			continue
		case "_page":
			n, err := parseNonNegative(key, vals[0])
			if err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, fmt.Errorf("%w: _page must be >= 1", ErrInvalidQuery)
			}
			q.Page = &n
			continue
		}

		// 未知の予約パラメータ（_embed等）は無視
		if strings.HasPrefix(key, "_") {
			continue
		}

		field, op := key, OperatorEq
		for _, s := range operatorSuffixes {
			if strings.HasSuffix(key, s.suffix) && len(key) > len(s.suffix) {
				field, op = strings.TrimSuffix(key, s.suffix), s.op
				break
			}
		}

		f, err := NewFilter(field, op, vals...)
		if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, f)
	}

	for i, field := range sortFields {
		desc := i < len(orders) && strings.EqualFold(orders[i], "desc")
		q.Sort = append(q.Sort, SortKey{Field: field, Desc: desc})
	}

	return q, nil
}

type entry struct {
	record Record
	raw    []byte
}

// Apply レコードに条件を適用
func (q *Query) Apply(records []Record) (*Result, error) {
	entries := make([]entry, 0, len(records))
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record: %w", err)
		}
		if !q.matches(raw) {
			continue
		}
		entries = append(entries, entry{record: r, raw: raw})
	}

	if len(q.Sort) > 0 {
		slices.SortStableFunc(entries, func(a, b entry) int {
			for _, key := range q.Sort {
				c := compareResults(fieldOf(a.raw, key.Field), fieldOf(b.raw, key.Field))
				if c == 0 {
					continue
				}
				if key.Desc {
					return -c
				}
				return c
			}
			return 0
		})
	}

	n := len(entries)
	result := &Result{Total: n}
	start, end := 0, n

	switch {
	case q.Page != nil:
		limit := DefaultPageLimit
		if q.Limit != nil && *q.Limit > 0 {
			limit = *q.Limit
		}
		result.Sliced = true
		result.Page = *q.Page
		result.Limit = limit
		result.LastPage = max(ceilDiv(n, limit), 1)
		// 掛け算の前に範囲外のページを判定してオーバーフローを避ける
		if *q.Page-1 > n/limit {
			start = n
		} else {
			start = (*q.Page - 1) * limit
		}
		end = start + min(limit, n-start)
	case q.Start != nil || q.End != nil || q.Limit != nil:
		if q.Start != nil {
			start = min(*q.Start, n)
		}
		if q.End != nil {
			end = *q.End
		} else if q.Limit != nil {
			end = start + min(*q.Limit, n-start)
		}
		result.Sliced = true
	}

	end = min(end, n)
	start = min(start, end)

	result.Records = make([]Record, 0, end-start)
	for _, e := range entries[start:end] {
		result.Records = append(result.Records, e.record)
	}
	return result, nil
}

func (q *Query) matches(raw []byte) bool {
	for _, f := range q.Filters {
		if !f.matches(fieldOf(raw, f.Field)) {
			return false
		}
	}
	if q.Search != "" && !search(gjson.ParseBytes(raw), strings.ToLower(q.Search)) {
		return false
	}
	return true
}

func (f Filter) matches(res gjson.Result) bool {
	switch f.Op {
	case OperatorNe:
		for _, v := range f.Values {
			if equals(res, v) {
				return false
			}
		}
		return true
	case OperatorGte, OperatorLte:
		if !res.Exists() {
			return false
		}
		for _, v := range f.Values {
			c := compareToString(res, v)
			if (f.Op == OperatorGte && c >= 0) || (f.Op == OperatorLte && c <= 0) {
				return true
			}
		}
		return false
	case OperatorLike:
		if !res.Exists() {
			return false
		}
		for _, re := range f.patterns {
			if ok, err := re.MatchString(res.String()); err == nil && ok {
				return true
			}
		}
		return false
	default:
		for _, v := range f.Values {
			if equals(res, v) {
				return true
			}
		}
		return false
	}
}

func equals(res gjson.Result, v string) bool {
	if !res.Exists() {
		return false
	}
	if res.IsArray() {
		for _, item := range res.Array() {
			if item.String() == v {
				return true
			}
		}
		return false
	}
	return res.String() == v
}

func compareToString(res gjson.Result, v string) int {
	if res.Type == gjson.Number {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return compareFloat(res.Float(), f)
		}
	}
	return strings.Compare(res.String(), v)
}

// compareResults 存在しない値は常に後ろへ
func compareResults(a, b gjson.Result) int {
	switch {
	case !a.Exists() && !b.Exists():
		return 0
	case !a.Exists():
		return 1
	case !b.Exists():
		return -1
	case a.Type == gjson.Number && b.Type == gjson.Number:
		return compareFloat(a.Float(), b.Float())
	default:
		return strings.Compare(a.String(), b.String())
	}
}

func ceilDiv(n, d int) int {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func search(res gjson.Result, needle string) bool {
	switch {
	case res.IsObject() || res.IsArray():
		found := false
		res.ForEach(func(_, value gjson.Result) bool {
			found = search(value, needle)
			return !found
		})
		return found
	case res.Type == gjson.String || res.Type == gjson.Number:
		return strings.Contains(strings.ToLower(res.String()), needle)
	default:
		return false
	}
}

func fieldOf(raw []byte, field string) gjson.Result {
	return gjson.GetBytes(raw, escapePath(field))
}

// escapePath ドット区切り以外のgjson特殊文字をエスケープ
func escapePath(field string) string {
	var b strings.Builder
	for _, r := range field {
		switch r {
		case '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseNonNegative(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidQuery, key)
	}
	return n, nil
}
