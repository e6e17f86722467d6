package contracts

import "github.com/julienschmidt/httprouter"

// Handler is a route group mounted by app.Application.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
