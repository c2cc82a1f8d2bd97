package ingest

import (
	"reflect"
	"testing"
)

func TestParseLine_Basic(t *testing.T) {
	got := ParseLine("Alpha Fund,500,12.5")
	want := []string{"Alpha Fund", "500", "12.5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseLine_QuotedFieldWithCommaAndEscapedQuote(t *testing.T) {
	got := ParseLine(`"Fund, ""Growth"" Plan",100`)
	want := []string{`Fund, "Growth" Plan`, "100"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseLine_UnterminatedQuoteConsumesToEnd(t *testing.T) {
	got := ParseLine(`"Alpha, Fund,100`)
	want := []string{"Alpha, Fund,100"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseLine_TrimsWhitespace(t *testing.T) {
	got := ParseLine("  Alpha Fund ,  500  ")
	want := []string{"Alpha Fund", "500"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseLine_EmptyFields(t *testing.T) {
	got := ParseLine("a,,b,")
	want := []string{"a", "", "b", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseDocument_WindowsLineEndings(t *testing.T) {
	headers, rows := ParseDocument("name,aum\r\nAlpha Fund,500\r\nBeta Fund,300\r\n")
	if !reflect.DeepEqual(headers, []string{"name", "aum"}) {
		t.Fatalf("headers: got %v", headers)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "Beta Fund" {
		t.Errorf("row 1: got %v", rows[1])
	}
}

func TestParseDocument_SkipsBlankLines(t *testing.T) {
	headers, rows := ParseDocument("name,aum\n\nAlpha Fund,500\n   \nBeta Fund,300\n\n")
	if len(headers) != 2 {
		t.Fatalf("headers: got %v", headers)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
}

func TestParseDocument_Empty(t *testing.T) {
	headers, rows := ParseDocument("   \n  ")
	if headers != nil || rows != nil {
		t.Fatalf("expected no headers/rows, got %v / %v", headers, rows)
	}
}

func TestParseDocument_HeadersOnly(t *testing.T) {
	headers, rows := ParseDocument("name,aum")
	if !reflect.DeepEqual(headers, []string{"name", "aum"}) {
		t.Fatalf("headers: got %v", headers)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}
}
