package query

import (
	"reflect"
	"testing"
)

func TestSubstitute(t *testing.T) {
	cases := []struct {
		name     string
		template string
		params   map[string]any
		want     string
	}{
		{
			"scalar",
			"SELECT * FROM T WHERE x={@id}",
			map[string]any{"id": "5"},
			"SELECT * FROM T WHERE x='5'",
		},
		{
			"list",
			"SELECT * FROM T WHERE x={@id}",
			map[string]any{"id": []string{"5", "6"}},
			"SELECT * FROM T WHERE x=('5','6')",
		},
		{
			"plain braces",
			"WHERE region={region}",
			map[string]any{"region": "North"},
			"WHERE region='North'",
		},
		{
			"key with leading at",
			"WHERE region={region}",
			map[string]any{"@region": "North"},
			"WHERE region='North'",
		},
		{
			"spaces inside braces",
			"WHERE region={ @region } AND x={ region }",
			map[string]any{"region": "North"},
			"WHERE region='North' AND x='North'",
		},
		{
			"every occurrence replaced",
			"{a} + {a} + {@a}",
			map[string]any{"a": "1"},
			"'1' + '1' + '1'",
		},
		{
			"unmatched placeholder untouched",
			"WHERE x={missing}",
			map[string]any{"id": "5"},
			"WHERE x={missing}",
		},
		{
			"case sensitive key",
			"WHERE x={ID}",
			map[string]any{"id": "5"},
			"WHERE x={ID}",
		},
		{
			"quote escaping",
			"WHERE name={n}",
			map[string]any{"n": "O'Brien"},
			"WHERE name='O''Brien'",
		},
		{
			"list of any",
			"IN {codes}",
			map[string]any{"codes": []any{"a", "b"}},
			"IN ('a','b')",
		},
		{
			"nil value",
			"x={v}",
			map[string]any{"v": nil},
			"x=''",
		},
		{
			"no params",
			"SELECT 1",
			nil,
			"SELECT 1",
		},
		{
			"placeholder inside a value stays literal",
			"WHERE a={a} AND b={b}",
			map[string]any{"a": "{b}", "b": "x"},
			"WHERE a='{b}' AND b='x'",
		},
		{
			"key that prefixes another key",
			"WHERE x={id} AND y={id2}",
			map[string]any{"id": "1", "id2": "2"},
			"WHERE x='1' AND y='2'",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Substitute(tc.template, tc.params)
			if got != tc.want {
				t.Errorf("Substitute = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	cases := []struct {
		name     string
		template string
		want     []string
	}{
		{"single", "SELECT 1", []string{"SELECT 1"}},
		{"multiple", "SELECT 1; SELECT 2", []string{"SELECT 1", "SELECT 2"}},
		{"trailing semicolon", "SELECT 1;", []string{"SELECT 1"}},
		{"blank segments dropped", " ; SELECT 1 ;; ", []string{"SELECT 1"}},
		{"empty", "", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitStatements(tc.template)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitStatements = %#v, want %#v", got, tc.want)
			}
		})
	}
}
