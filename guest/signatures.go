package guest

import "github.com/jdavidagudelo/handoff/domain/entities"

var (
	i32 = entities.ValueTypeI32
	i64 = entities.ValueTypeI64
)

func sig(params, results []entities.ValueType) entities.Signature {
	return entities.Signature{Params: params, Results: results}
}

// Signatures lists every export and its core wasm signature.
func Signatures() map[string]entities.Signature {
	none := []entities.ValueType{}
	one := []entities.ValueType{i32}
	two := []entities.ValueType{i32, i32}

	return map[string]entities.Signature{
		entities.ExportAllocate:               sig(one, one),
		entities.ExportDeallocate:             sig(two, none),
		entities.ExportDatabaseCreate:         sig(none, one),
		entities.ExportDatabasePopulate:       sig(one, none),
		entities.ExportDatabaseQuery:          sig(two, one),
		entities.ExportDatabaseDestroy:        sig(one, none),
		entities.ExportFlip:                   sig(two, none),
		entities.ExportSumOfEven:              sig(two, one),
		entities.ExportAdd:                    sig(two, one),
		entities.ExportCharCount:              sig(one, one),
		entities.ExportGenerateSong:           sig(one, one),
		entities.ExportReleaseSong:            sig(one, none),
		entities.ExportBuildOwnedBuffer:       sig(one, none),
		entities.ExportReleaseOwnedBuffer:     sig(one, none),
		entities.ExportStaticArrayView:        sig(none, one),
		entities.ExportStaticMutableArrayView: sig(none, one),
		entities.ExportLiveAllocations:        sig(none, []entities.ValueType{i64}),
	}
}
