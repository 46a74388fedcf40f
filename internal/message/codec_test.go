package message

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeSingleKind(t *testing.T) {
	frames, err := Decode(`{"Mark":{"place":5}}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Kind != KindMark {
		t.Fatalf("kind = %s, want Mark", frames[0].Kind)
	}
	mark, ok := frames[0].Payload.(*Mark)
	if !ok {
		t.Fatalf("payload type = %T, want *Mark", frames[0].Payload)
	}
	if mark.Place != 5 {
		t.Fatalf("place = %d, want 5", mark.Place)
	}
}

func TestDecodeKeepsKeyOrder(t *testing.T) {
	frames, err := Decode(`{"PlayerProfile":{"name":"ana"},"CursorMove":[1,2],"NewWorld":{}}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := []Kind{KindPlayerProfile, KindCursorMove, KindNewWorld}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d", len(frames), len(want))
	}
	for i, kind := range want {
		if frames[i].Kind != kind {
			t.Errorf("frame %d kind = %s, want %s", i, frames[i].Kind, kind)
		}
	}
	cursor := frames[1].Payload.(*CursorMove)
	if cursor[0] != 1 || cursor[1] != 2 {
		t.Fatalf("cursor = %v, want [1 2]", *cursor)
	}
}

func TestDecodeNullPayloadUsesEmptyShape(t *testing.T) {
	frames, err := Decode(`{"RequestRematch":null}`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if _, ok := frames[0].Payload.(*RequestRematch); !ok {
		t.Fatalf("payload type = %T, want *RequestRematch", frames[0].Payload)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "not json", text: `{"Mark":`, want: ErrMalformedFrame},
		{name: "array envelope", text: `[{"Mark":{"place":1}}]`, want: ErrMalformedFrame},
		{name: "string envelope", text: `"Mark"`, want: ErrMalformedFrame},
		{name: "unknown kind", text: `{"Teleport":{}}`, want: ErrUnknownKind},
		{name: "payload shape", text: `{"Mark":{"place":"five"}}`, want: ErrMalformedFrame},
		{name: "server only kind", text: `{"JoinedWorld":{"world":"x"}}`, want: ErrWrongDirection},
		{name: "internal kind", text: `{"AddPlayer":{}}`, want: ErrWrongDirection},
		{name: "forged disconnect", text: `{"Disconnected":{}}`, want: ErrWrongDirection},
		{name: "local connected", text: `{"Connected":{}}`, want: ErrWrongDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := Decode(tt.text)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode(%s) error = %v, want %v", tt.text, err, tt.want)
			}
			if len(frames) != 0 {
				t.Fatalf("got %d frames, want none", len(frames))
			}
		})
	}
}

func TestDecodeSkipsBadKeysButKeepsGoodOnes(t *testing.T) {
	frames, err := Decode(`{"Teleport":{},"Mark":{"place":3}}`)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("error = %v, want ErrUnknownKind", err)
	}
	if len(frames) != 1 || frames[0].Kind != KindMark {
		t.Fatalf("frames = %+v, want a single Mark", frames)
	}
}

func TestEncodeEnvelope(t *testing.T) {
	board := Board{SignX, SignNone, SignNone, SignNone, SignO, SignNone, SignNone, SignNone, SignNone}
	text, err := Encode(KindSync, &Sync{Board: &board, Turn: SignX})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	want := `{"Sync":{"board":["X",null,null,null,"O",null,null,null,null],"turn":"X"}}`
	if text != want {
		t.Fatalf("Encode = %s, want %s", text, want)
	}
}

func TestEncodeNilPayload(t *testing.T) {
	text, err := Encode(KindDraw, nil)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if text != `{"Draw":{}}` {
		t.Fatalf("Encode = %s, want {\"Draw\":{}}", text)
	}
}

func TestEncodeHidesIdentityPadding(t *testing.T) {
	text, err := Encode(KindRequestRematch, &RequestRematch{})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if text != `{"RequestRematch":{}}` {
		t.Fatalf("Encode = %s, want {\"RequestRematch\":{}}", text)
	}
}

func TestEncodeRejectsClientOnlyAndLocalKinds(t *testing.T) {
	for _, kind := range []Kind{KindNewWorld, KindJoinWorld, KindConnected, KindAddPlayer} {
		if _, err := Encode(kind, nil); !errors.Is(err, ErrWrongDirection) {
			t.Errorf("Encode(%s) error = %v, want ErrWrongDirection", kind, err)
		}
	}
	if _, err := Encode("Teleport", nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Encode(Teleport) error = %v, want ErrUnknownKind", err)
	}
}

func TestCursorSyncWireShape(t *testing.T) {
	sync := CursorSync{{ID: "abcd1234", X: 10, Y: 20.5}}
	text, err := Encode(KindCursorSync, &sync)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if want := `{"CursorSync":[["abcd1234",10,20.5]]}`; text != want {
		t.Fatalf("Encode = %s, want %s", text, want)
	}

	var back CursorSync
	if err := json.Unmarshal([]byte(`[["abcd1234",10,20.5]]`), &back); err != nil {
		t.Fatalf("unmarshal cursor sync: %v", err)
	}
	if back[0] != sync[0] {
		t.Fatalf("cursor = %+v, want %+v", back[0], sync[0])
	}
}

func TestStartWireShape(t *testing.T) {
	name := "ana"
	text, err := Encode(KindStart, &Start{
		Opponent: PlayerWithSign{PlayerData: PlayerData{Name: &name}, Sign: SignO},
		Sign:     SignX,
		Turn:     SignO,
	})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if want := `{"Start":{"opponent":{"name":"ana","sign":"O"},"sign":"X","turn":"O"}}`; text != want {
		t.Fatalf("Encode = %s, want %s", text, want)
	}
}

func TestKindClassification(t *testing.T) {
	attributable := map[Kind]bool{
		KindMark:           true,
		KindNewWorld:       true,
		KindJoinWorld:      true,
		KindPlayerProfile:  true,
		KindRequestRematch: true,
		KindCursorMove:     true,
	}
	for kind := range catalog {
		if got := kind.Attributable(); got != attributable[kind] {
			t.Errorf("%s.Attributable() = %v, want %v", kind, got, attributable[kind])
		}
	}
	if Kind("Teleport").Known() {
		t.Error("Teleport should not be a known kind")
	}
}
