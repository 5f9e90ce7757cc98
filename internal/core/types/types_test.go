package types

import "testing"

func TestPriceCreation(t *testing.T) {
	p1 := NewPrice(100, 1234)
	if p1.Raw() != 1001234 {
		t.Fatalf("expected raw 1001234, got %d", p1.Raw())
	}

	p2 := PriceFromFloat64(100.1234)
	if !p2.Equal(p1) {
		t.Fatalf("expected %v == %v", p2, p1)
	}
}

func TestPriceArithmetic(t *testing.T) {
	p1 := NewPrice(100, 0)
	p2 := NewPrice(50, 0)

	if got := p1.Add(p2); !got.Equal(NewPrice(150, 0)) {
		t.Errorf("Add: got %v", got)
	}
	if got := p1.Sub(p2); !got.Equal(NewPrice(50, 0)) {
		t.Errorf("Sub: got %v", got)
	}
}

func TestPriceDisplay(t *testing.T) {
	p := NewPrice(100, 1234)
	if got := p.String(); got != "100.1234" {
		t.Errorf("expected 100.1234, got %s", got)
	}

	pNeg := NewPrice(-50, -500)
	if got := pNeg.String(); got != "-50.0500" {
		t.Errorf("expected -50.0500, got %s", got)
	}
}

func TestQuantityArithmetic(t *testing.T) {
	q1 := NewQuantity(10, 0)
	q2 := NewQuantity(5, 0)

	if got := q1.Add(q2); !got.Equal(NewQuantity(15, 0)) {
		t.Errorf("Add: got %v", got)
	}
	if got := q1.Sub(q2); !got.Equal(NewQuantity(5, 0)) {
		t.Errorf("Sub: got %v", got)
	}
}

func TestQuantityMultiply(t *testing.T) {
	q1 := NewQuantity(2, 0)
	q2 := NewQuantity(3, 0)

	if got := q1.Mul(q2); !got.Equal(NewQuantity(6, 0)) {
		t.Errorf("Mul: got %v, want 6.0", got)
	}
}

func TestTimestampElapsed(t *testing.T) {
	t1 := TimestampFromCycles(1000)
	t2 := TimestampFromCycles(1500)

	if got := t2.ElapsedSince(t1); got != 500 {
		t.Errorf("expected 500, got %d", got)
	}
	if got := t2.Sub(t1); got != 500 {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestPriceRawUniquelyDeterminesValue(t *testing.T) {
	a := PriceFromRaw(123456)
	b := PriceFromRaw(123456)
	if !a.Equal(b) {
		t.Errorf("two prices built from the same raw value must be equal")
	}
}
