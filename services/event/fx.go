package event

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("event.module",
	fx.Provide(NewService),
	fx.Provide(NewHandler),
)

var Routes = fx.Module("event.routes",
	fx.Invoke(registerRoutes),
)

func registerRoutes(engine *gin.Engine, handler *Handler) {
	handler.Register(engine)
}
