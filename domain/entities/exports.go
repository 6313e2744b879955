package entities

// Guest export names.
const (
	ExportAllocate               = "allocate"
	ExportDeallocate             = "deallocate"
	ExportDatabaseCreate         = "database_create"
	ExportDatabasePopulate       = "database_populate"
	ExportDatabaseQuery          = "database_query"
	ExportDatabaseDestroy        = "database_destroy"
	ExportFlip                   = "flip"
	ExportSumOfEven              = "sum_of_even"
	ExportAdd                    = "add"
	ExportCharCount              = "char_count"
	ExportGenerateSong           = "generate_song"
	ExportReleaseSong            = "release_song"
	ExportBuildOwnedBuffer       = "build_owned_buffer"
	ExportReleaseOwnedBuffer     = "release_owned_buffer"
	ExportStaticArrayView        = "static_array_view"
	ExportStaticMutableArrayView = "static_mutable_array_view"
	ExportLiveAllocations        = "live_allocations"
)
