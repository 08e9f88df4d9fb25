package interfaces

import (
	"github.com/google/wire"

	"github.com/janhq/multichat/internal/interfaces/httpserver"
	"github.com/janhq/multichat/internal/interfaces/httpserver/handlers"
	"github.com/janhq/multichat/internal/interfaces/httpserver/routes"
)

// InterfacesProvider provides all interface dependencies.
var InterfacesProvider = wire.NewSet(
	handlers.HandlerProvider,
	routes.RouteProvider,
	httpserver.New,
)
