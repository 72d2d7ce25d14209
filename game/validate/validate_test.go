package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/vroomhub/garage-server/game/protocol"
)

func TestVector3(t *testing.T) {
	tests := []struct {
		name  string
		v     []float64
		max   float64
		valid bool
	}{
		{"all zero", []float64{0, 0, 0}, 10000, true},
		{"within bounds", []float64{100, -200, 300}, 10000, true},
		{"component exceeds max", []float64{10001, 0, 0}, 10000, false},
		{"negative exceeds max", []float64{0, -10001, 0}, 10000, false},
		{"wrong arity short", []float64{1, 2}, 10000, false},
		{"wrong arity long", []float64{1, 2, 3, 4}, 10000, false},
		{"nil", nil, 10000, false},
		{"NaN", []float64{math.NaN(), 0, 0}, 10000, false},
		{"Inf", []float64{0, math.Inf(1), 0}, 10000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Vector3(tt.v, tt.max); got != tt.valid {
				t.Errorf("Vector3(%v, %v) = %v, want %v", tt.v, tt.max, got, tt.valid)
			}
		})
	}
}

func TestQuaternion(t *testing.T) {
	tests := []struct {
		name  string
		q     []float64
		valid bool
	}{
		{"identity", []float64{0, 0, 0, 1}, true},
		{"normalization drift tolerated", []float64{0, 0, 0, 1.05}, true},
		{"component too large", []float64{0, 0, 0, 1.2}, false},
		{"length three rejected", []float64{0, 0, 1}, false},
		{"length five rejected", []float64{0, 0, 0, 1, 0}, false},
		{"NaN rejected", []float64{math.NaN(), 0, 0, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quaternion(tt.q); got != tt.valid {
				t.Errorf("Quaternion(%v) = %v, want %v", tt.q, got, tt.valid)
			}
		})
	}
}

func TestTransformUpdate(t *testing.T) {
	steering := 0.3
	bad := math.Inf(1)

	t.Run("absent fields pass", func(t *testing.T) {
		if !TransformUpdate(protocol.TransformUpdate{}, 10000, 500) {
			t.Error("Empty update should be valid")
		}
	})

	t.Run("zero velocity accepted", func(t *testing.T) {
		u := protocol.TransformUpdate{Velocity: []float64{0, 0, 0}}
		if !TransformUpdate(u, 10000, 500) {
			t.Error("All-zero velocity should be valid")
		}
	})

	t.Run("position beyond max rejected", func(t *testing.T) {
		u := protocol.TransformUpdate{Position: []float64{0, 20000, 0}}
		if TransformUpdate(u, 10000, 500) {
			t.Error("Out-of-bounds position should be rejected")
		}
	})

	t.Run("angular velocity beyond 100 rejected", func(t *testing.T) {
		u := protocol.TransformUpdate{AngularVelocity: []float64{0, 0, 101}}
		if TransformUpdate(u, 10000, 500) {
			t.Error("Angular velocity above 100 should be rejected")
		}
	})

	t.Run("valid partial update", func(t *testing.T) {
		u := protocol.TransformUpdate{
			Position: []float64{1, 2, 3},
			Rotation: []float64{0, 0, 0, 1},
			Steering: &steering,
		}
		if !TransformUpdate(u, 10000, 500) {
			t.Error("Valid partial update should pass")
		}
	})

	t.Run("non-finite steering rejected", func(t *testing.T) {
		u := protocol.TransformUpdate{Steering: &bad}
		if TransformUpdate(u, 10000, 500) {
			t.Error("Infinite steering should be rejected")
		}
	})
}

func TestVehicleConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		errs := VehicleConfig(map[string]any{
			"body":        "coupe",
			"color":       "#ff2200",
			"enginePower": 420.0,
			"addons":      []any{"spoiler", "neon"},
		})
		if len(errs) != 0 {
			t.Errorf("Expected no errors, got %v", errs)
		}
	})

	t.Run("missing color mentions color", func(t *testing.T) {
		errs := VehicleConfig(map[string]any{"body": "coupe"})
		if len(errs) == 0 {
			t.Fatal("Expected validation errors")
		}
		found := false
		for _, e := range errs {
			if strings.Contains(e, "color") {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected an error mentioning color, got %v", errs)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		if errs := VehicleConfig(nil); len(errs) == 0 {
			t.Error("Expected errors for nil config")
		}
	})

	t.Run("non-numeric tuning field", func(t *testing.T) {
		errs := VehicleConfig(map[string]any{
			"body":  "coupe",
			"color": "red",
			"mass":  "heavy",
		})
		if len(errs) != 1 {
			t.Errorf("Expected one error, got %v", errs)
		}
	})

	t.Run("non-string addon", func(t *testing.T) {
		errs := VehicleConfig(map[string]any{
			"body":   "coupe",
			"color":  "red",
			"addons": []any{"spoiler", 7.0},
		})
		if len(errs) != 1 {
			t.Errorf("Expected one error, got %v", errs)
		}
	})
}

func TestRoomCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"valid code", "ABC234", true},
		{"too short", "ABC23", false},
		{"too long", "ABC2345", false},
		{"lowercase rejected", "abc234", false},
		{"ambiguous I rejected", "ABCI34", false},
		{"ambiguous O rejected", "ABCO34", false},
		{"zero rejected", "ABC034", false},
		{"one rejected", "ABC134", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoomCode(tt.code, 6); got != tt.valid {
				t.Errorf("RoomCode(%q, 6) = %v, want %v", tt.code, got, tt.valid)
			}
		})
	}
}

func TestPlayerName(t *testing.T) {
	if _, ok := PlayerName(strings.Repeat("x", 21)); ok {
		t.Error("21-character name should be rejected")
	}
	if name, ok := PlayerName(" Speedy "); !ok || name != "Speedy" {
		t.Errorf("Expected trimmed Speedy, got %q ok=%v", name, ok)
	}
}

func TestChatText(t *testing.T) {
	if _, ok := ChatText(strings.Repeat("x", 201)); ok {
		t.Error("201-character message should be rejected")
	}
	if _, ok := ChatText("  "); ok {
		t.Error("Whitespace-only message should be rejected")
	}
	if text, ok := ChatText("hello"); !ok || text != "hello" {
		t.Errorf("Expected hello, got %q ok=%v", text, ok)
	}
}
