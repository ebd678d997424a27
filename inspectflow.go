// Package inspectflow is a machine-vision inspection orchestration
// engine. Operators compose inspection stages ("tools": acquisition,
// filtering, detection, recognition, measurement, communication) into
// directed pipelines ("procedures"), group procedures into a
// "solution", and execute them once or continuously against images,
// tolerating and classifying per-stage failures.
//
// The root package holds the engine core: the Tool contract and its
// self-correcting ParamStore, the Registry of tool kinds, the
// Procedure graph with its deterministic topological scheduler, and
// the Solution control loop. Collaborators live in subpackages:
//
//	import "github.com/inspect-labs/inspectflow/faults"       // taxonomy + recovery
//	import "github.com/inspect-labs/inspectflow/tools"        // built-in tool catalog
//	import "github.com/inspect-labs/inspectflow/camera"       // image-source devices
//	import "github.com/inspect-labs/inspectflow/store"        // run-record persistence
//	import "github.com/inspect-labs/inspectflow/schedule"     // cron-driven runs
//	import "github.com/inspect-labs/inspectflow/solutionfile" // declarative solution YAML
package inspectflow
