package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/shiftswap/internal/shared"
)

func TestDecode(t *testing.T) {
	t.Run("Canonical And Legacy Names", func(t *testing.T) {
		tests := []struct {
			frame string
			want  Event
		}{
			{`{"event":"swap.requested","data":{"fromUserName":"Bea"}}`, SwapRequested{FromUserName: "Bea"}},
			{`{"event":"newSwapRequest","data":{"from":"Bea"}}`, SwapRequested{FromUserName: "Bea"}},
			{`{"event":"swap-request-received","data":{"fromUserName":"Bea"}}`, SwapRequested{FromUserName: "Bea"}},
			{`{"event":"swap.accepted","data":{"otherUserName":"Ana"}}`, SwapAccepted{OtherUserName: "Ana"}},
			{`{"event":"swapAccepted","data":{"otherUser":"Ana"}}`, SwapAccepted{OtherUserName: "Ana"}},
			{`{"event":"swap-accepted","data":{"otherUser":"Ana"}}`, SwapAccepted{OtherUserName: "Ana"}},
			{`{"event":"swap-updated","data":{"otherUserName":"Ana"}}`, SwapAccepted{OtherUserName: "Ana"}},
			{`{"event":"swap.rejected"}`, SwapRejected{}},
			{`{"event":"swap-rejected","data":null}`, SwapRejected{}},
		}

		for _, tt := range tests {
			t.Run(tt.frame, func(t *testing.T) {
				got, err := Decode([]byte(tt.frame))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != tt.want {
					t.Errorf("expected %#v, got %#v", tt.want, got)
				}
			})
		}
	})

	t.Run("Unknown Name", func(t *testing.T) {
		_, err := Decode([]byte(`{"event":"swap.cancelled","data":{}}`))
		if !errors.Is(err, shared.ErrUnknownEvent) {
			t.Errorf("expected ErrUnknownEvent, got %v", err)
		}
	})

	t.Run("Missing Required Fields", func(t *testing.T) {
		for _, frame := range []string{
			`{"event":"swap.requested","data":{}}`,
			`{"event":"swapAccepted"}`,
			`{"event":"swap.requested","data":{"fromUserName":"   "}}`,
		} {
			if _, err := Decode([]byte(frame)); !errors.Is(err, shared.ErrMalformedEvent) {
				t.Errorf("%s: expected ErrMalformedEvent, got %v", frame, err)
			}
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		if _, err := Decode([]byte(`not json`)); !errors.Is(err, shared.ErrMalformedEvent) {
			t.Errorf("expected ErrMalformedEvent, got %v", err)
		}
		if _, err := Decode([]byte(`{"event":"swap.requested","data":"Bea"}`)); !errors.Is(err, shared.ErrMalformedEvent) {
			t.Errorf("expected ErrMalformedEvent for non-object data, got %v", err)
		}
	})
}

func TestEncode(t *testing.T) {
	t.Run("Canonical Frame Decodes Back", func(t *testing.T) {
		frame, err := Encode(SwapAccepted{OtherUserName: "Ana"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("invalid envelope: %v", err)
		}
		if env.Event != "swap.accepted" || string(env.Data) != `{"otherUserName":"Ana"}` {
			t.Errorf("unexpected frame %s", frame)
		}
	})

	t.Run("Nil Event", func(t *testing.T) {
		if _, err := Encode(nil); err == nil {
			t.Error("expected error for nil event")
		}
	})
}

func TestOutbound(t *testing.T) {
	t.Run("Encode", func(t *testing.T) {
		frame, err := EncodeOutbound(SendSwapRequest{ToUserID: "u1", FromName: "Bea"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(frame) != `{"event":"swap.request.sent","data":{"toUserId":"u1","fromName":"Bea"}}` {
			t.Errorf("unexpected frame %s", frame)
		}
	})

	t.Run("Decode Legacy Name", func(t *testing.T) {
		msg, err := DecodeOutbound([]byte(`{"event":"sendSwapRequest","data":{"toUserId":"u1","fromName":"Bea"}}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if msg.ToUserID != "u1" || msg.FromName != "Bea" {
			t.Errorf("unexpected message %+v", msg)
		}
	})

	t.Run("Decode Rejects Inbound Names", func(t *testing.T) {
		if _, err := DecodeOutbound([]byte(`{"event":"swap.requested","data":{}}`)); !errors.Is(err, shared.ErrUnknownEvent) {
			t.Errorf("expected ErrUnknownEvent, got %v", err)
		}
	})

	t.Run("Decode Requires Recipient", func(t *testing.T) {
		if _, err := DecodeOutbound([]byte(`{"event":"swap.request.sent","data":{"fromName":"Bea"}}`)); !errors.Is(err, shared.ErrMalformedEvent) {
			t.Errorf("expected ErrMalformedEvent, got %v", err)
		}
	})
}

func TestDispatcher(t *testing.T) {
	t.Run("Delivers In Registration Order", func(t *testing.T) {
		d := NewDispatcher()
		var got []string
		d.Subscribe(KindSwapRequested, func(Event) { got = append(got, "first") })
		d.Subscribe(KindSwapRequested, func(Event) { got = append(got, "second") })
		d.Subscribe(KindSwapAccepted, func(Event) { got = append(got, "other") })

		d.Dispatch(SwapRequested{FromUserName: "Bea"})

		if len(got) != 2 || got[0] != "first" || got[1] != "second" {
			t.Errorf("unexpected deliveries %v", got)
		}
	})

	t.Run("Release Is Idempotent", func(t *testing.T) {
		d := NewDispatcher()
		calls := 0
		sub := d.Subscribe(KindSwapRejected, func(Event) { calls++ })

		sub.Release()
		sub.Release()
		d.Dispatch(SwapRejected{})

		if calls != 0 {
			t.Errorf("expected no deliveries after release, got %d", calls)
		}
		if d.Count(KindSwapRejected) != 0 || !sub.Released() {
			t.Error("expected subscription removed")
		}
	})

	t.Run("Release During Dispatch Skips Later Handlers", func(t *testing.T) {
		d := NewDispatcher()
		var second *Subscription
		calls := 0
		d.Subscribe(KindSwapAccepted, func(Event) { second.Release() })
		second = d.Subscribe(KindSwapAccepted, func(Event) { calls++ })

		d.Dispatch(SwapAccepted{OtherUserName: "Ana"})

		if calls != 0 {
			t.Errorf("released handler should not run, got %d calls", calls)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		d := NewDispatcher()
		sub := d.Subscribe(KindSwapRequested, func(Event) {})
		d.Subscribe(KindSwapAccepted, func(Event) {})

		d.Reset()

		for _, k := range Kinds {
			if d.Count(k) != 0 {
				t.Errorf("expected no subscriptions for %s", k)
			}
		}
		if !sub.Released() {
			t.Error("expected handle to report released")
		}
		sub.Release()
	})

	t.Run("Nil Release", func(t *testing.T) {
		var sub *Subscription
		sub.Release()
	})
}
