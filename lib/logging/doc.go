// Package logging configures the dragonboat logger package used throughout
// dshop. Packages declare their logger with logger.GetLogger(name); Init
// installs a factory producing "LEVEL | name | message" lines and sets the
// level of every name in Loggers.
package logging
