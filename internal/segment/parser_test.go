package segment

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseBlock(t *testing.T) {
	input := "00:00-Intro\n01:30-Main Topic\n05:45-Conclusion"

	ranges, err := ParseBlock(input)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if len(ranges) != 3 {
		t.Fatalf("got %d ranges, want 3", len(ranges))
	}

	want := []struct {
		start float64
		end   *float64
		label string
	}{
		{0, f64(90), "Intro"},
		{90, f64(345), "Main Topic"},
		{345, nil, "Conclusion"},
	}
	for i, w := range want {
		r := ranges[i]
		if r.Start != w.start || r.Label != w.label {
			t.Errorf("ranges[%d] = {%v %v %q}, want {%v %v %q}", i, r.Start, r.End, r.Label, w.start, w.end, w.label)
		}
		if (r.End == nil) != (w.end == nil) {
			t.Errorf("ranges[%d].End nil-ness mismatch", i)
		} else if r.End != nil && *r.End != *w.end {
			t.Errorf("ranges[%d].End = %v, want %v", i, *r.End, *w.end)
		}
	}
}

func TestParseBlockChaining(t *testing.T) {
	input := "00:00-a\n00:10-b\n00:20-c\n01:00-d\n02:30-e"

	ranges, err := ParseBlock(input)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if len(ranges) != 5 {
		t.Fatalf("got %d ranges, want 5", len(ranges))
	}
	for i := 0; i < len(ranges)-1; i++ {
		if ranges[i].End == nil {
			t.Fatalf("ranges[%d].End is nil, only the last may be open", i)
		}
		if *ranges[i].End != ranges[i+1].Start {
			t.Errorf("ranges[%d].End = %v, want %v", i, *ranges[i].End, ranges[i+1].Start)
		}
	}
	if ranges[len(ranges)-1].End != nil {
		t.Error("last range must be open-ended")
	}
}

func TestParseBlockDeterministic(t *testing.T) {
	input := "00:00-Setup\n02:15-Deep Dive - part two\n08:40-Wrap up"

	first, err := ParseBlock(input)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, err := ParseBlock(input)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parses differ:\n%v\n%v", first, second)
	}
}

func TestParseBlockTitleKeepsDashes(t *testing.T) {
	ranges, err := ParseBlock("01:00-Q&A - audience questions")
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if ranges[0].Label != "Q&A - audience questions" {
		t.Errorf("label = %q, only the first '-' should delimit", ranges[0].Label)
	}
}

func TestParseBlockAtomicFailure(t *testing.T) {
	input := "00:00-a\n00:10-b\n00:20 no delimiter here\n01:00-d\n02:30-e"

	ranges, err := ParseBlock(input)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if ranges != nil {
		t.Errorf("expected no partial result, got %d ranges", len(ranges))
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a ParseError", err)
	}
	if pe.Line != 3 {
		t.Errorf("ParseError.Line = %d, want 3", pe.Line)
	}
	if pe.Content != "00:20 no delimiter here" {
		t.Errorf("ParseError.Content = %q", pe.Content)
	}
}

func TestParseBlockBadClock(t *testing.T) {
	_, err := ParseBlock("00:00-a\nnonsense-b")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("ParseError.Line = %d, want 2", pe.Line)
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("ParseError should wrap the clock FormatError, got %v", err)
	}
}

func TestParseBlockSkipsBlankLines(t *testing.T) {
	input := "\n00:00-a\n\n   \n01:30-b\n\n"

	ranges, err := ParseBlock(input)
	if err != nil {
		t.Fatalf("ParseBlock: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}

	// Line numbers in errors count against the filtered list.
	_, err = ParseBlock("\n\n00:00-a\n\nbroken line\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("ParseError.Line = %d, want 2 (blank lines must not shift numbering)", pe.Line)
	}
}

func TestParseBlockEmpty(t *testing.T) {
	if _, err := ParseBlock("  \n\n  "); err == nil {
		t.Error("expected error for empty block")
	}
}

func f64(v float64) *float64 { return &v }
