package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"homestead.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	requestSchema := compile("request.schema.json")
	confirmSchema := compile("confirm.schema.json")
	eventSchema := compile("event.schema.json")
	byeSchema := compile("bye.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"0.4",
	  "editor_name":"editor1"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"0.4",
	  "session_id":"d2b9e4b2-7a7f-4d3e-9a55-0b6f3c1d2e0f",
	  "world_params":{"tick_rate_hz":10,"seed":1337}
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var request any
	_ = json.Unmarshal([]byte(`{
	  "type":"REQUEST",
	  "protocol_version":"0.4",
	  "id":3,
	  "command":{
	    "kind":"BUY_OBJECT",
	    "buy":{"object_kind":"table_oak","pos":{"x":3,"y":0,"z":2},"yaw":90}
	  }
	}`), &request)
	validate(requestSchema, request)

	var confirm any
	_ = json.Unmarshal([]byte(`{
	  "type":"CONFIRM",
	  "protocol_version":"0.4",
	  "id":3,
	  "ok":true,
	  "entity":{"i":4,"g":1}
	}`), &confirm)
	validate(confirmSchema, confirm)

	var rejected any
	_ = json.Unmarshal([]byte(`{
	  "type":"CONFIRM",
	  "protocol_version":"0.4",
	  "id":5,
	  "ok":false,
	  "code":"E_INVALID_TARGET",
	  "entity":{"i":0,"g":0}
	}`), &rejected)
	validate(confirmSchema, rejected)

	var event any
	_ = json.Unmarshal([]byte(`{
	  "type":"EVENT",
	  "protocol_version":"0.4",
	  "tick":42,
	  "deltas":[
	    {"kind":"SPAWN","entity":{"i":4,"g":1},"object_kind":"table_oak","pos":{"x":3,"y":0,"z":2},"yaw":90},
	    {"kind":"MOVE","entity":{"i":2,"g":1},"pos":{"x":6,"y":0,"z":1},"yaw":270},
	    {"kind":"DESPAWN","entity":{"i":3,"g":2},"pos":{"x":0,"y":0,"z":0},"yaw":0}
	  ]
	}`), &event)
	validate(eventSchema, event)

	var bye any
	_ = json.Unmarshal([]byte(`{
	  "type":"BYE",
	  "protocol_version":"0.4",
	  "reason":"shutdown"
	}`), &bye)
	validate(byeSchema, bye)
}

// The Go message types must marshal into exactly the documents the schemas
// accept.
func TestSchemas_AcceptMarshaledMessages(t *testing.T) {
	reqSchema, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "request.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	confSchema, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "confirm.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	req := protocol.RequestMsg{
		Type:            protocol.TypeRequest,
		ProtocolVersion: protocol.Version,
		ID:              7,
		Command: protocol.CommandPayload{
			Kind: protocol.CommandSellObject,
			Sell: &protocol.SellPayload{Entity: protocol.EntityRef{Index: 4, Gen: 1}},
		},
	}
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := reqSchema.Validate(doc); err != nil {
		t.Fatalf("marshaled request rejected: %v", err)
	}

	conf := protocol.ConfirmMsg{
		Type:            protocol.TypeConfirm,
		ProtocolVersion: protocol.Version,
		ID:              7,
		OK:              true,
		Entity:          protocol.EntityRef{Index: 4, Gen: 1},
	}
	raw, err = json.Marshal(conf)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := confSchema.Validate(doc); err != nil {
		t.Fatalf("marshaled confirm rejected: %v", err)
	}
}
