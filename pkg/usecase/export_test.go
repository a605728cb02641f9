package usecase

// Exported for testing
var (
	SelectTables   = selectTables
	SummarizeTable = summarizeTable
	MergeChunks    = mergeChunks
	SearchTerms    = searchTerms
)
