// Package logging provides a minimal structured logging facade for the
// orchestrator's CLI, built on log/slog.
//
// Every subsystem that logs (planner, supervisor, executor, workspace) does
// so through Debug/Info/Warn/Error with its own subsystem tag, so a single
// InitForCLI call at process startup controls the level and destination for
// the whole run.
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("planner", "kept %d of %d cases after arch filter", kept, total)
//	logging.Error("executor", err, "case %s: build failed", caseName)
package logging
