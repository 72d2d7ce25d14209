// Package validate provides the stateless payload checks applied to inbound
// messages before any state is mutated. It checks:
//   - Vector arity, finiteness, and magnitude bounds for transforms
//   - Vehicle configuration shape (required fields and tuning field types)
//   - Room code length and alphabet
//   - Display name and chat text length limits
//
// Catalog legality of body/addon identifiers is the client-side catalog's
// responsibility and is deliberately not checked here.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/vroomhub/garage-server/game/protocol"
)

const (
	// RoomCodeAlphabet excludes visually ambiguous characters (I, O, 0, 1).
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	MaxNameLength = 20
	MaxChatLength = 200

	// MaxAngularVelocity bounds each angular velocity component.
	MaxAngularVelocity = 100
	// MaxQuaternionComponent tolerates normalization drift slightly above 1.
	MaxQuaternionComponent = 1.1
)

var roomCodePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]+$`)

// requiredConfigFields must be present as non-empty strings in every
// vehicle configuration.
var requiredConfigFields = []string{"body", "color"}

// tuningFields are optional, but must be finite numbers when present.
var tuningFields = []string{"enginePower", "brakePower", "turnStrength", "mass"}

// Vector3 reports whether v is a 3-component vector of finite numbers
// whose components are all within [-max, max].
func Vector3(v []float64, max float64) bool {
	if len(v) != 3 {
		return false
	}
	return allWithin(v, max)
}

// Quaternion reports whether q is a 4-component rotation with each
// component finite and within MaxQuaternionComponent.
func Quaternion(q []float64) bool {
	if len(q) != 4 {
		return false
	}
	return allWithin(q, MaxQuaternionComponent)
}

// AngularVelocity reports whether v is a valid 3-component angular
// velocity vector.
func AngularVelocity(v []float64) bool {
	return Vector3(v, MaxAngularVelocity)
}

// TransformUpdate checks every field present in a partial transform update.
// Absent fields pass; present fields must have exact arity and bounded,
// finite components.
func TransformUpdate(u protocol.TransformUpdate, maxPosition, maxVelocity float64) bool {
	if u.Position != nil && !Vector3(u.Position, maxPosition) {
		return false
	}
	if u.Rotation != nil && !Quaternion(u.Rotation) {
		return false
	}
	if u.Velocity != nil && !Vector3(u.Velocity, maxVelocity) {
		return false
	}
	if u.AngularVelocity != nil && !AngularVelocity(u.AngularVelocity) {
		return false
	}
	for _, ws := range [][]float64{u.WheelRotations, u.WheelPositions} {
		for _, w := range ws {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return false
			}
		}
	}
	if u.Steering != nil && (math.IsNaN(*u.Steering) || math.IsInf(*u.Steering, 0)) {
		return false
	}
	if u.RPM != nil && (math.IsNaN(*u.RPM) || math.IsInf(*u.RPM, 0)) {
		return false
	}
	return true
}

// VehicleConfig validates the shape of a vehicle configuration and returns
// the list of validation errors found. An empty list means the config is
// acceptable.
func VehicleConfig(cfg map[string]any) []string {
	errs := []string{}

	if cfg == nil {
		return append(errs, "vehicle config is missing")
	}

	for _, field := range requiredConfigFields {
		v, ok := cfg[field]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing required field: %s", field))
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Sprintf("field %s must be a non-empty string", field))
		}
	}

	for _, field := range tuningFields {
		v, ok := cfg[field]
		if !ok {
			continue
		}
		n, ok := v.(float64)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			errs = append(errs, fmt.Sprintf("field %s must be a finite number", field))
		}
	}

	if v, ok := cfg["addons"]; ok {
		list, ok := v.([]any)
		if !ok {
			errs = append(errs, "field addons must be a list")
		} else {
			for i, a := range list {
				if _, ok := a.(string); !ok {
					errs = append(errs, fmt.Sprintf("addon at index %d must be a string", i))
				}
			}
		}
	}

	return errs
}

// RoomCode reports whether code has exactly the configured length and is
// drawn entirely from the room code alphabet.
func RoomCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	return roomCodePattern.MatchString(code)
}

// PlayerName trims name and reports whether the result is a usable display
// name (1 to MaxNameLength characters). The trimmed name is returned.
func PlayerName(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || len([]rune(trimmed)) > MaxNameLength {
		return "", false
	}
	return trimmed, true
}

// ChatText trims text and reports whether the result is sendable
// (1 to MaxChatLength characters). The trimmed text is returned.
func ChatText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len([]rune(trimmed)) > MaxChatLength {
		return "", false
	}
	return trimmed, true
}

func allWithin(vs []float64, max float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > max {
			return false
		}
	}
	return true
}
