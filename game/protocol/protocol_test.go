package protocol

import (
	"encoding/json"
	"testing"
)

func TestClientMessageParsing(t *testing.T) {
	t.Run("join room with optional fields", func(t *testing.T) {
		raw := `{"type":"JOIN_ROOM","roomId":"ABC234","name":"Speedy","vehicleConfig":{"body":"coupe","color":"red"}}`
		var msg ClientMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if msg.Type != TypeJoinRoom {
			t.Errorf("Expected JOIN_ROOM, got %q", msg.Type)
		}
		if msg.RoomID == nil || *msg.RoomID != "ABC234" {
			t.Errorf("Expected roomId ABC234, got %v", msg.RoomID)
		}
		if msg.Config["body"] != "coupe" {
			t.Errorf("Expected vehicle config, got %v", msg.Config)
		}
	})

	t.Run("absent transform fields stay nil", func(t *testing.T) {
		raw := `{"type":"PLAYER_UPDATE","position":[1,2,3]}`
		var msg ClientMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if msg.Position == nil {
			t.Error("Position should be set")
		}
		if msg.Rotation != nil || msg.Steering != nil || msg.Horn != nil {
			t.Error("Absent fields must remain nil for partial merge")
		}
	})
}

func TestOutboundMessages(t *testing.T) {
	t.Run("constructors stamp type and timestamp", func(t *testing.T) {
		welcome := NewWelcome("p1")
		if welcome.Type != TypeWelcome || welcome.PlayerID != "p1" || welcome.Timestamp == 0 {
			t.Errorf("Unexpected welcome: %+v", welcome)
		}

		errMsg := NewError(ErrCodeValidation, "bad config", "missing color")
		if errMsg.Type != TypeError || errMsg.Code != ErrCodeValidation {
			t.Errorf("Unexpected error message: %+v", errMsg)
		}
		if len(errMsg.Errors) != 1 {
			t.Errorf("Expected error detail list, got %v", errMsg.Errors)
		}
	})

	t.Run("error detail list omitted when empty", func(t *testing.T) {
		data, err := json.Marshal(NewError(ErrCodeNotInRoom, "not in a room"))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if _, ok := decoded["errors"]; ok {
			t.Error("Empty error list should be omitted from the wire")
		}
	})
}
