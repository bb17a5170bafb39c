package master

import (
	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncMode = mustCBOREncMode()
	cborDecMode = mustCBORDecMode()
)

func mustCBOREncMode() cbor.EncMode {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("Failed to create CBOR encoder: " + err.Error())
	}
	return encMode
}

func mustCBORDecMode() cbor.DecMode {
	decMode, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("Failed to create CBOR decoder: " + err.Error())
	}
	return decMode
}

// cborCodec encodes the messages exchanged with the master as CBOR.
// Field names are taken from the messages' JSON struct tags. Unknown
// fields sent by newer masters are ignored.
type cborCodec struct{}

func (cborCodec) Marshal(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func (cborCodec) Unmarshal(data []byte, v any) error {
	return cborDecMode.Unmarshal(data, v)
}

func (cborCodec) Name() string {
	return "cbor"
}
