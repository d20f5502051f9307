package units

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvert(t *testing.T) {
	c := NewConverter()

	t.Run("CupsToMilliliters", func(t *testing.T) {
		got, err := c.Convert(decimal.NewFromInt(2), "cups", "ml")
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		want := decimal.RequireFromString("473.176473")
		if !got.Equal(want) {
			t.Errorf("Expected %s, got %s", want, got)
		}
	})

	t.Run("BlankUnitIsNoOp", func(t *testing.T) {
		q := decimal.RequireFromString("1.5")
		got, err := c.Convert(q, "", "cup")
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		if !got.Equal(q) {
			t.Errorf("Expected %s unchanged, got %s", q, got)
		}
	})

	t.Run("SameUnitIsNoOp", func(t *testing.T) {
		q := decimal.NewFromInt(3)
		got, err := c.Convert(q, "Cup", " cup ")
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		if !got.Equal(q) {
			t.Errorf("Expected %s unchanged, got %s", q, got)
		}
	})

	t.Run("UnknownUnit", func(t *testing.T) {
		_, err := c.Convert(decimal.NewFromInt(1), "splash", "cup")
		if !errors.Is(err, ErrUnknownUnit) {
			t.Errorf("Expected ErrUnknownUnit, got %v", err)
		}
	})

	t.Run("CrossFamilyFails", func(t *testing.T) {
		_, err := c.Convert(decimal.NewFromInt(1), "cup", "g")
		if !errors.Is(err, ErrIncompatibleUnits) {
			t.Errorf("Expected ErrIncompatibleUnits, got %v", err)
		}
	})

	t.Run("CountUnitsNeverConvertPairwise", func(t *testing.T) {
		_, err := c.Convert(decimal.NewFromInt(2), "pieces", "cloves")
		if !errors.Is(err, ErrIncompatibleUnits) {
			t.Errorf("Expected ErrIncompatibleUnits for piece->clove, got %v", err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		pairs := [][2]string{
			{"cup", "ml"}, {"tbsp", "tsp"}, {"gallon", "pint"},
			{"kg", "oz"}, {"lb", "g"},
		}
		tolerance := decimal.RequireFromString("0.000000001")
		q := decimal.RequireFromString("3.7")
		for _, p := range pairs {
			there, err := c.Convert(q, p[0], p[1])
			if err != nil {
				t.Fatalf("Convert %s->%s failed: %v", p[0], p[1], err)
			}
			back, err := c.Convert(there, p[1], p[0])
			if err != nil {
				t.Fatalf("Convert %s->%s failed: %v", p[1], p[0], err)
			}
			if back.Sub(q).Abs().GreaterThan(tolerance) {
				t.Errorf("Round trip %s<->%s: expected %s, got %s", p[0], p[1], q, back)
			}
		}
	})
}

func TestFamilyIsolation(t *testing.T) {
	c := NewConverter()
	volume := []string{"tsp", "tbsp", "cup", "ml", "l", "pint", "quart", "gallon"}
	weight := []string{"g", "kg", "oz", "lb", "pound"}

	for _, v := range volume {
		for _, w := range weight {
			if _, err := c.Convert(decimal.NewFromInt(1), v, w); !errors.Is(err, ErrIncompatibleUnits) {
				t.Errorf("Expected ErrIncompatibleUnits for %s->%s, got %v", v, w, err)
			}
		}
	}
}

func TestCanConvert(t *testing.T) {
	c := NewConverter()
	cases := []struct {
		from, to string
		want     bool
	}{
		{"cup", "ml", true},
		{"CUPS", " liters ", true},
		{"g", "lb", true},
		{"cup", "g", false},
		{"piece", "clove", false},
		{"clove", "cloves", false},
		{"cloves", "cloves", true},
		{"cup", "splash", false},
		{"splash", "splash", false},
	}
	for _, tc := range cases {
		if got := c.CanConvert(tc.from, tc.to); got != tc.want {
			t.Errorf("CanConvert(%q, %q): expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestFindCommonUnit(t *testing.T) {
	c := NewConverter()

	t.Run("MostFrequentWins", func(t *testing.T) {
		got := c.FindCommonUnit([]string{"cup", "ml", "cup"})
		if got != "cup" {
			t.Errorf("Expected 'cup', got %q", got)
		}
	})

	t.Run("TieBrokenByFirstSeen", func(t *testing.T) {
		got := c.FindCommonUnit([]string{"ml", "cup"})
		if got != "ml" {
			t.Errorf("Expected 'ml', got %q", got)
		}
	})

	t.Run("BlanksIgnored", func(t *testing.T) {
		got := c.FindCommonUnit([]string{"", "  ", "tbsp"})
		if got != "tbsp" {
			t.Errorf("Expected 'tbsp', got %q", got)
		}
	})

	t.Run("AllBlank", func(t *testing.T) {
		if got := c.FindCommonUnit([]string{"", ""}); got != "" {
			t.Errorf("Expected no common unit, got %q", got)
		}
	})

	t.Run("MixedFamilies", func(t *testing.T) {
		if got := c.FindCommonUnit([]string{"cup", "g"}); got != "" {
			t.Errorf("Expected no common unit, got %q", got)
		}
	})

	t.Run("DistinctCountUnits", func(t *testing.T) {
		if got := c.FindCommonUnit([]string{"piece", "clove"}); got != "" {
			t.Errorf("Expected no common unit for distinct count units, got %q", got)
		}
	})

	t.Run("SameCountUnit", func(t *testing.T) {
		if got := c.FindCommonUnit([]string{"cloves", "cloves"}); got != "cloves" {
			t.Errorf("Expected 'cloves', got %q", got)
		}
	})

	t.Run("UnknownUnitBlocksConsolidation", func(t *testing.T) {
		if got := c.FindCommonUnit([]string{"cup", "splash"}); got != "" {
			t.Errorf("Expected no common unit with unknown entry, got %q", got)
		}
	})
}
