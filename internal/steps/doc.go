// Package steps models external processing collaborators and the ordered
// function catalog built from them.
//
// A Collaborator exposes named operations. BuildCatalog numbers every
// operation of every collaborator; the operator picks an ordered plan by
// index and the Executor runs it with run-if-missing semantics over each
// operation's declared outputs.
//
// Collaborators are declared in a TOML manifest:
//
//	[[collaborator]]
//	name = "fsl"
//	command = "fmri-steps"
//	args = ["--quiet"]
//
//	[[collaborator.operation]]
//	name = "convert"
//	outputs = ["converted.nii.gz"]
//
//	[[collaborator.operation]]
//	name = "motion_correction"
//	outputs = ["mc.nii.gz"]
package steps
