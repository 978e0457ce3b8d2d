// Package autoload initializes the global logger from LOG_* env vars as a
// side effect of being imported.
package autoload

import (
	configx "github.com/parlaplate/parlaplate/pkg/config"
	logx "github.com/parlaplate/parlaplate/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
