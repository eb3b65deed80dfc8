// Package workspace manages the directories labrunner writes to: the runs
// tree holding one working directory per sweep run (runs/<sweep>/<run>/ with
// the captured run.log), and the daemon data dir holding persistent state
// such as the history database.
//
// Run directories are persistent. Experiment output survives the process that
// launched it; cleanup is explicit via CleanSweep or the clean target.
package workspace
