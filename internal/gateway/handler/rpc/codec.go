package rpc

import "encoding/json"

// jsonCodec lets connect carry plain Go structs. It replaces connect's
// protojson codec under the same name, so clients keep sending
// `application/json`.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
