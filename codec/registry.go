package codec

import "github.com/lyradb/lyradb/format"

// ByID returns the FixedCodec implementation for a codec id as recorded in
// a page header, so the column store can decode a page without knowing in
// advance which codec produced it.
func ByID(id format.CodecID) (FixedCodec, error) {
	switch id {
	case format.CodecUncompressed:
		return NewNoopCodec(), nil
	case format.CodecRLE:
		return NewRLECodec(), nil
	case format.CodecBitpack:
		return NewBitpackCodec(), nil
	case format.CodecDelta:
		return NewDeltaCodec(), nil
	case format.CodecGeneralLZ:
		return NewGeneralLZCodec(GeneralAlgoZstd), nil
	default:
		return nil, newFrameError("unknown codec id")
	}
}
