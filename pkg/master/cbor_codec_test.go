package master

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func TestCBORCodec(t *testing.T) {
	codec := cborCodec{}

	t.Run("FieldNames", func(t *testing.T) {
		data, err := codec.Marshal(&commitBlockInUFSRequest{BlockID: 42, Length: 1024})
		require.NoError(t, err)

		var fields map[string]int64
		require.NoError(t, cbor.Unmarshal(data, &fields))
		require.Equal(t, map[string]int64{"blockId": 42, "length": 1024}, fields)
	})

	t.Run("UnknownFieldsIgnored", func(t *testing.T) {
		data, err := cbor.Marshal(map[string]any{
			"type":     "Free",
			"blockIds": []int64{1, 2},
			"epoch":    7,
		})
		require.NoError(t, err)

		var command Command
		require.NoError(t, codec.Unmarshal(data, &command))
		require.Equal(t, Command{Type: CommandFree, BlockIDs: []int64{1, 2}}, command)
	})
}
