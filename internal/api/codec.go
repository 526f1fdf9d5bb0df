package api

import (
	"encoding/json"

	"github.com/dmitrijs2005/homeshare/internal/common"
	"google.golang.org/grpc/encoding"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return common.ContentSubtype
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
