package proto

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRequestNullContent(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"request":"names","content":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Request != RequestNames || req.Content != "" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestEncodeResponseShape(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 5, 7, 0, time.Local)
	data, err := Encode(Info(now, "Login successful"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]string{
		"timestamp": "09:05:07",
		"sender":    "server",
		"response":  "info",
		"content":   "Login successful",
	}
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	for k, v := range want {
		if fields[k] != v {
			t.Fatalf("field %s: expected %q, got %q", k, v, fields[k])
		}
	}
}

func TestChatIsInfoFromAuthor(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 5, 7, 0, time.Local)
	resp := Chat(now, "alice", "hi")

	if resp.Response != ResponseInfo {
		t.Fatalf("chat lines must use an allowed kind, got %q", resp.Response)
	}
	if resp.Sender != "alice" || resp.Content != "hi" || resp.Timestamp != "09:05:07" {
		t.Fatalf("unexpected chat response: %+v", resp)
	}
}
