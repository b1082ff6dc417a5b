// Package logger provides structured logging built on zerolog.
//
// It supports JSON and console output, level configuration, component-scoped
// loggers and request-id tagging through the context.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("rest")
//	log.Debug("request sent", logger.Fields("endpoint", "appSetting"))
package logger
