// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestJournalRing(t *testing.T) {
	j := NewJournal(3)
	if j.Len() != 0 || len(j.Lines()) != 0 {
		t.Fatal("new journal not empty")
	}

	for i := range 5 {
		j.Add(fmt.Sprintf("line %d", i))
	}

	want := []string{"line 2", "line 3", "line 4"}
	if got := j.Lines(); !slices.Equal(got, want) {
		t.Errorf("Lines() = %v, want %v", got, want)
	}
	if j.Len() != 3 {
		t.Errorf("Len() = %d, want 3", j.Len())
	}
	if got := j.Tail(2); !slices.Equal(got, want[1:]) {
		t.Errorf("Tail(2) = %v", got)
	}
	if got := j.Tail(10); len(got) != 3 {
		t.Errorf("Tail(10) returned %d lines", len(got))
	}
}

func TestJournalWriteSplitsLines(t *testing.T) {
	j := NewJournal(10)
	fmt.Fprint(j, "first\nsec")
	if got := j.Lines(); !slices.Equal(got, []string{"first"}) {
		t.Fatalf("Lines() = %v, want [first]", got)
	}

	fmt.Fprint(j, "ond\r\nthird\n")
	if got := j.Lines(); !slices.Equal(got, []string{"first", "second", "third"}) {
		t.Errorf("Lines() = %v", got)
	}
}

func TestJournalLinesIsCopy(t *testing.T) {
	j := NewJournal(2)
	j.Add("a")
	lines := j.Lines()
	lines[0] = "mutated"
	if j.Lines()[0] != "a" {
		t.Error("Lines() exposed internal storage")
	}
}

func TestJournalConcurrentWrites(t *testing.T) {
	j := NewJournal(1000)
	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				fmt.Fprintf(j, "writer %d line %d\n", w, i)
			}
		}()
	}
	wg.Wait()
	if j.Len() != 400 {
		t.Errorf("Len() = %d, want 400", j.Len())
	}
}
