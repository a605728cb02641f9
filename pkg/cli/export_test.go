package cli

var (
	PrintReply     = printReply
	GetIndexConfig = getIndexConfig
)
