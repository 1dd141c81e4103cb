// Package container wires the service's dependencies.
package container

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/narwhalmedia/ottcore/pkg/config"
	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// Router is the root HTTP handler.
type Router struct {
	http.Handler
}

// Container holds the assembled service.
type Container struct {
	Config   *config.OTTConfig
	Logger   interfaces.Logger
	DB       *gorm.DB
	EventBus interfaces.EventBus
	Router   *Router
}
