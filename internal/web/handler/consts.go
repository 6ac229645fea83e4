package handler

const (
	// RootPath is the prefix of every API route.
	RootPath = "/api"

	// RouterRootPath is the path of a route group's own root.
	RouterRootPath = "/"

	// ErrNilDepsFatalLogMsg is used if the router or the handler dependencies are nil.
	ErrNilDepsFatalLogMsg = "router, cfg or db is nil"
)
