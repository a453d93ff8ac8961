//

package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Dentosal/brain-opt/lang/bf"
)

const helloWorld = `++++++++[>++++[>++>+++>+++
>+<<<<-]>+>+>->>+[<]<-]>>.>-
--.+++++++..+++.>>.<-.<.+++.
------.--------.>>+.>++.`

func run(t *testing.T, src, input string) string {
	t.Helper()
	tokens, err := bf.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	i, err := New(Input(strings.NewReader(input)), Output(&out))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := i.Run(tokens); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func check(t *testing.T, src, input, expected string) {
	t.Helper()
	if got := run(t, src, input); got != expected {
		t.Errorf("output of %q on %q: expected %q, got %q", src, input, expected, got)
	}
}

func TestSimple(t *testing.T) {
	check(t, "+.", "", "\x01")
}

func TestAdd(t *testing.T) {
	check(t, "++ > +++ < [->+<] > .", "", "\x05")
}

func TestHelloWorld(t *testing.T) {
	check(t, helloWorld, "", "Hello World!\n")
}

func TestEcho(t *testing.T) {
	check(t, ",.", "A", "A")
	// EOF reads as zero
	check(t, ",.", "", "\x00")
}

func TestCat(t *testing.T) {
	check(t, ",[.,]", "abc", "abc")
	check(t, ",[.,]", "", "")
}

func TestPointerUnderflow(t *testing.T) {
	tokens, err := bf.Parse("<")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	i, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := i.Run(tokens); err == nil {
		t.Error("expected an error for moving left of the origin")
	}
}

func TestWrapping(t *testing.T) {
	// 256 increments wrap back to zero, so the loop body never runs
	check(t, strings.Repeat("+", 256)+"[>+.<-]", "", "")
}
