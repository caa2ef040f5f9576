// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder that only colours levels on a terminal,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - --log-level parsing and the shared atomic level,
//   - the leveled helpers the stages call (InfoKV, WarnKV, ErrorKV and friends).
//
// Pipeline stages and the process runner accept a context and extract the
// logger from it, so every line printed by an external tool carries the name
// of the stage that spawned it.
package logger
